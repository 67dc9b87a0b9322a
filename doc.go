/*
Package flowdeck is the editing model of a visual chatbot-flow builder for
WhatsApp Business conversations.

A flow is a graph of message nodes (START, TEXT, IMAGE, AUDIO, VIDEO,
DOCUMENT, BUTTON, LIST) joined by edges drawn from a node's output handle to
another node's input handle. The Editor owns persistence and hands out one
Session per flow; a Session owns the graph state, the palette whose dialogs
append nodes to it, and the diff stream consumed by live clients.

# Usage

	editor := flowdeck.New(
		flowdeck.WithStore(file.New(".flowdeck/flows")),
		flowdeck.WithMediaLibrary(restClient),
	)

	session, err := editor.Mount(ctx, "welcome")
	if err != nil {
		log.Fatal(err)
	}

	node, err := session.Submit(ctx, domain.NodeDetails{
		Type: domain.NodeTypeText,
		Data: &domain.TextData{Label: "Hello"},
	})

	if err := session.Save(ctx); err != nil {
		log.Fatal(err)
	}

Mounting loads the stored graph and prefetches the media listings in
parallel. A flow with no stored data mounts empty. Node ids come from a
monotonic counter, so they never collide with loaded nodes.

# Surfaces

The same Editor backs the HTTP API (pkg/adapters/http), the MCP tool server
(pkg/adapters/mcp) and the flowdeck CLI (cmd/flowdeck).
*/
package flowdeck

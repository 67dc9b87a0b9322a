// Package palette implements the node factory side panel.
//
// Selecting a kind opens a kind-scoped Dialog whose Form collects the message
// fields. Confirming invokes the kind callback from Callbacks, and Factory
// builds callbacks that wrap the fields into a domain.NodeDetails and append
// the node to the graph. Media dialogs nest an AttachmentSelector backed by a
// ports.MediaLibrary.
package palette

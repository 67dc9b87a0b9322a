/*
Package dsl provides a fluent builder for flow graphs.

It drives the same reducer as the editor, so node ids, edge styles and
handle names come out exactly as if a user had built the flow on the canvas.
This is useful for tests, seeding stores and examples.

Example usage:

	b := dsl.New()
	start := b.Start()
	hello := b.Text("Hello!")
	menu := b.Buttons("What now?", "Shop", "Talk to us")

	start.Go(hello)
	hello.Go(menu)
	menu.Button(0).Go(b.Image("m123").Caption("Our catalog"))

	graph, err := b.Build()
*/
package dsl

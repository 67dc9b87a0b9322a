/*
Package domain holds the core types of the flow builder.

A chatbot flow is a Graph of FlowNodes connected by FlowEdges. Each node has a
NodeType tag and a matching NodeData payload; each edge starts at a named output
Handle of its source node. The package also defines the conversation message
events consumed by the live inbox, and the lifecycle hooks fired by the editor.

The types are plain data: they carry no behavior beyond (de)serialization,
cloning and handle computation, so they can be shared by every adapter.
*/
package domain

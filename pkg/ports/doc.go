/*
Package ports defines the driven ports (interfaces) for flowdeck.

These interfaces decouple the editor from external implementations, allowing
it to work with various storage backends, media sources and message feeds.

# Key Interfaces

  - FlowStore: persists and loads flow graphs by flow ID.
  - MediaLibrary: lists uploaded attachments for the attachment selector.
  - MessageHistory: pulls the stored messages of a conversation.
  - MessageFeed: pushes live message events.
  - DistributedLocker: provides distributed locking for concurrent flow access.
*/
package ports

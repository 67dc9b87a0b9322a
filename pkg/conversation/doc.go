/*
Package conversation keeps the live message timeline of chat conversations.

An Inbox is fed from two sides: the REST history seeds it when a conversation
is opened, and a ports.MessageFeed pushes events afterwards. Both go through
the same insert path, so a message that arrives twice is stored once.
*/
package conversation

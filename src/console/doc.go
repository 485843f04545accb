// Package console implements the line-oriented operator console.
//
//	send <id> <text>            send a payload to a node
//	create <id> <children|NO>   start a new node
//	add <id> <child>            add a child to a node
//	remove <id> <child>         remove a child from a node
//	kill <id>                   terminate a node
//	nodes                       list nodes
//	info <id>                   show the edges of a node
//	help
//	quit
//
// Errors, such as an unknown node id, are printed as "error: ..." lines and
// the console keeps reading.
package console

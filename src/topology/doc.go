// Package topology reads the static declaration of the graph and keeps it in
// a Store.
//
// A topology file has one line per node:
//
//	1=2,3
//	2=NO
//	3=NO
//
// The key is the node id and the value lists the ids of its children, or NO
// when it has none. Load fails on the first unreadable file or malformed id.
package topology

// Package models defines the content tree: content nodes, collection definitions,
// and the nested tree views built from a flat node list.
package models

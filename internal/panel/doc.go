// Package panel holds the immutable panel and widget templates that the
// navigation engine instantiates.
//
// Templates are produced once by the document loader and shared by pointer
// between every node that instantiates them. Nothing in the engine mutates a
// template after the registry is built.
package panel

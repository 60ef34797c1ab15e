// Package rag holds the vector helpers shared by embedding and retrieval.
//
// Stored chunk embeddings and query embeddings are both unit length, so the
// similarity search can rank by dot product instead of cosine similarity.
package rag

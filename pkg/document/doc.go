// Package document implements the ingestion side of the pipeline: loading
// text out of patient PDF reports, normalizing it, and splitting it into
// bounded chunks ready for embedding.
package document

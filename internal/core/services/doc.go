// Package services implements the driving port interfaces.
// Services contain the retrieval pipeline logic and orchestrate
// calls to driven ports (adapters).
//
// The indexer, retriever, injection defense, query pipeline, evaluator,
// analyzer and scheduler are pure Go and depend only on the ports.
package services

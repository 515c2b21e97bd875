// Package encoder serves behavioral-biometric embeddings computed by LSTM
// encoder models behind a caching and metrics layer.
//
// The heavy lifting happens in an out-of-process model runner consumed
// through the Model interface; this package orchestrates the request path
// around it:
//
//	hash input -> cache lookup -> (on miss) model inference -> cache store
//
// Inference always runs outside any cache lock, so two concurrent requests
// for the same uncached input may both compute it. That redundant work is
// accepted; single-flight deduplication is deliberately not provided.
//
// # Usage
//
//	models := map[encoder.Type]encoder.Model{
//		encoder.TypeMotion: encoder.NewPlaceholder(encoder.TypeMotion, 256),
//	}
//
//	svc := encoder.NewService(models, cacheManager, collector,
//		encoder.WithServiceLogger(log),
//	)
//
//	embedding, err := svc.Encode(ctx, encoder.TypeMotion, sample)
//
// Cache and metrics failures degrade silently: a successful inference is
// never turned into a failed response by the bookkeeping around it.
package encoder

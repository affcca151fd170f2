package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet. Flag names mirror
// the settings keys (see config.FlagName).
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	flags.String("storage-backend", "", "Object storage backend: gcs or fs")
	flags.StringP("storage-bucket", "b", "", "GCS bucket holding the corpus")
	flags.String("storage-credentials-file", "", "GCS service account key file")
	flags.String("storage-signer-email", "", "Service account used to sign GCS URLs")
	flags.String("storage-fs-root", "", "Root directory of the filesystem backend")
	flags.String("storage-fs-base-url", "", "Public base URL of signed file links (fs backend)")
	flags.String("storage-signing-key", "", "HMAC key for signed file links (fs backend)")
	flags.Duration("storage-url-ttl", 0, "Lifetime of signed document URLs")

	flags.String("corpus-root", "", "Storage prefix holding the indexed documents")
	flags.StringSlice("corpus-exclude-prefix", nil, "Storage prefixes excluded from indexing")
	flags.String("corpus-index-folder", "", "Storage prefix holding the index artifacts")
	flags.StringSlice("corpus-extensions", nil, "Indexed document extensions")
	flags.StringSlice("corpus-search-roots", nil, "Category folders searched by document lookups")

	flags.String("models-provider", "", "Model provider: ollama or openai")
	flags.String("models-base-url", "", "Model API base URL")
	flags.String("models-api-key", "", "Model API key")
	flags.String("models-chat-model", "", "Chat model name")
	flags.String("models-embedding-model", "", "Embedding model name")
	flags.Float64("models-routing-temperature", 0, "Temperature of intent classification")
	flags.Float64("models-answer-temperature", 0, "Temperature of answer generation")

	flags.Int("index-chunk-size", 0, "Chunk size in characters")
	flags.Int("index-chunk-overlap", 0, "Chunk overlap in characters")
	flags.Int("index-embed-batch-size", 0, "Chunks embedded per request")
	flags.String("index-lock-file", "", "Lock file serializing index synchronization")

	flags.Int("answer-top-k", 0, "Chunks retrieved per question")
	flags.Int("answer-max-context-tokens", 0, "Token budget of the retrieved context (0 disables)")
	flags.Bool("answer-hybrid", false, "Fuse vector and lexical retrieval")

	flags.Duration("timeouts-model", 0, "Timeout of a model call")
	flags.Duration("timeouts-storage", 0, "Timeout of a storage call")
	flags.Duration("timeouts-sync", 0, "Timeout of an index synchronization")

	flags.String("prompts-file", "", "YAML file overriding the prompt templates")
}

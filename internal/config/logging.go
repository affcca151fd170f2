package config

import (
	"context"
	"log/slog"
	"strings"
)

const mask = "****"

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	info := func(key string, args ...any) {
		logger.InfoContext(ctx, "Config: "+key, args...)
	}

	info("transport", "value", s.Transport)
	if s.Transport == TransportSSE {
		info("host", "value", s.Host)
		info("port", "value", s.Port)
	}
	info("log_level", "value", s.LogLevel)

	info("auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		info("auth.basic.username", "value", s.Auth.Basic.Username)
		info("auth.basic.password", "value", mask)
	case AuthTypeAPIKey:
		info("auth.api_keys", "count", len(s.Auth.APIKeys))
	}

	info("storage.backend", "value", s.Storage.Backend)
	switch s.Storage.Backend {
	case StorageGCS:
		info("storage.bucket", "value", s.Storage.Bucket)
		if s.Storage.CredentialsFile != "" {
			info("storage.credentials_file", "value", s.Storage.CredentialsFile)
		}
		if s.Storage.SignerEmail != "" {
			info("storage.signer_email", "value", s.Storage.SignerEmail)
		}
	case StorageFS:
		info("storage.fs_root", "value", s.Storage.FSRoot)
		info("storage.fs_base_url", "value", s.Storage.FSBaseURL)
		info("storage.signing_key", "value", maskSecret(s.Storage.SigningKey))
	}
	info("storage.url_ttl", "value", s.Storage.URLTTL)

	info("corpus.root", "value", s.Corpus.Root)
	info("corpus.exclude_prefix", "value", strings.Join(s.Corpus.ExcludePrefix, ","))
	info("corpus.index_folder", "value", s.Corpus.IndexFolder)
	info("corpus.extensions", "value", strings.Join(s.Corpus.Extensions, ","))
	info("corpus.search_roots", "value", strings.Join(s.Corpus.SearchRoots, ","))

	info("models.provider", "value", s.Models.Provider)
	if s.Models.BaseURL != "" {
		info("models.base_url", "value", s.Models.BaseURL)
	}
	if s.Models.APIKey != "" {
		info("models.api_key", "value", mask)
	}
	if s.Models.ChatModel != "" {
		info("models.chat_model", "value", s.Models.ChatModel)
	}
	if s.Models.EmbeddingModel != "" {
		info("models.embedding_model", "value", s.Models.EmbeddingModel)
	}

	info("index", "chunk_size", s.Index.ChunkSize, "chunk_overlap", s.Index.ChunkOverlap,
		"embed_batch_size", s.Index.EmbedBatchSize, "lock_file", s.Index.LockFile)
	info("answer", "top_k", s.Answer.TopK, "max_context_tokens", s.Answer.MaxContextTokens, "hybrid", s.Answer.Hybrid)
	info("timeouts", "model", s.Timeouts.Model, "storage", s.Timeouts.Storage, "sync", s.Timeouts.Sync)
	if s.Prompts.File != "" {
		info("prompts.file", "value", s.Prompts.File)
	}
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	return mask
}

// LogValue implements slog.LogValuer so that Settings never leak secrets into logs.
func (s Settings) LogValue() slog.Value {
	keys := make([]string, len(s.Auth.APIKeys))
	for i := range keys {
		keys[i] = mask
	}
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Group("auth",
			slog.String("type", s.Auth.Type),
			slog.String("username", s.Auth.Basic.Username),
			slog.String("password", maskSecret(s.Auth.Basic.Password)),
			slog.Any("api_keys", keys),
		),
		slog.Group("storage",
			slog.String("backend", s.Storage.Backend),
			slog.String("bucket", s.Storage.Bucket),
			slog.String("fs_root", s.Storage.FSRoot),
			slog.String("signing_key", maskSecret(s.Storage.SigningKey)),
		),
		slog.Group("models",
			slog.String("provider", s.Models.Provider),
			slog.String("base_url", s.Models.BaseURL),
			slog.String("api_key", maskSecret(s.Models.APIKey)),
		),
	)
}

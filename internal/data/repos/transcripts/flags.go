package transcripts

import "context"

// FlagStore exposes the indexed-flag columns without transaction plumbing.
type FlagStore struct {
	repo TranscriptRepo
}

func NewFlagStore(repo TranscriptRepo) *FlagStore {
	return &FlagStore{repo: repo}
}

func (f *FlagStore) IsIndexed(ctx context.Context, videoID, contentHash string) (bool, error) {
	return f.repo.IsIndexedWith(ctx, nil, videoID, contentHash)
}

func (f *FlagStore) MarkIndexed(ctx context.Context, videoID string, chunkCount int, embeddingModel, runID, contentHash string) error {
	return f.repo.MarkIndexed(ctx, nil, videoID, IndexInfo{
		ChunkCount:     chunkCount,
		EmbeddingModel: embeddingModel,
		RunID:          runID,
		ContentHash:    contentHash,
	})
}

func (f *FlagStore) ClearIndexed(ctx context.Context, videoID string) error {
	return f.repo.ClearIndexed(ctx, nil, videoID)
}

func (f *FlagStore) RecordIndexFailure(ctx context.Context, videoID, runID, message string) error {
	return f.repo.RecordIndexFailure(ctx, nil, videoID, runID, message)
}

package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/types"
	"github.com/oncorag/oncorag/pkg/utils"
)

const (
	chunkPrefix = "chunk/"
	metaKey     = "meta/collection"
)

// BadgerStore is an embedded vector store backed by Badger. Vectors are
// scanned exhaustively at query time, which is adequate for per-patient
// document sets of a few thousand chunks.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

// NewBadgerStore opens or creates a Badger-backed store at path.
func NewBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}
	return &BadgerStore{db: db, log: log}, nil
}

func chunkKey(patientID, chunkID string) []byte {
	return []byte(chunkPrefix + patientID + "/" + chunkID)
}

// Upsert indexes chunks, pinning the collection to the dimensionality and
// backend of the first batch written.
func (s *BadgerStore) Upsert(ctx context.Context, chunks []types.Chunk, backend embedder.Backend) error {
	if len(chunks) == 0 {
		return nil
	}
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("chunk %s: %w", chunks[i].ID, ErrMissingEmbedding)
		}
	}

	meta, err := s.ensureMeta(len(chunks[0].Embedding), backend)
	if err != nil {
		return err
	}
	for i := range chunks {
		if got := len(chunks[i].Embedding); got != meta.Dimensions {
			return embedder.NewDimensionMismatchError(meta.Dimensions, got)
		}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for i := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(chunks[i])
			if err != nil {
				return fmt.Errorf("failed to marshal chunk %s: %w", chunks[i].ID, err)
			}
			if err := txn.Set(chunkKey(chunks[i].PatientID, chunks[i].ID), data); err != nil {
				return fmt.Errorf("failed to store chunk %s: %w", chunks[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("stored chunks in vector index",
		slog.Int("count", len(chunks)),
		slog.String("backend", string(backend)),
		slog.Int("dimensions", meta.Dimensions))
	return nil
}

// ensureMeta loads the collection pin, creating it on first write.
func (s *BadgerStore) ensureMeta(dims int, backend embedder.Backend) (collectionMeta, error) {
	var meta collectionMeta
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err == badger.ErrKeyNotFound {
			meta = collectionMeta{Dimensions: dims, Backend: backend}
			data, merr := json.Marshal(meta)
			if merr != nil {
				return merr
			}
			return txn.Set([]byte(metaKey), data)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return collectionMeta{}, fmt.Errorf("failed to read collection metadata: %w", err)
	}
	if meta.Backend != backend {
		return collectionMeta{}, fmt.Errorf("%w: collection uses %s, got %s",
			ErrBackendMismatch, meta.Backend, backend)
	}
	return meta, nil
}

// Query scans the index and returns the k most similar chunks by cosine
// similarity. When patientID is non-empty the scan is restricted to that
// patient's key range.
func (s *BadgerStore) Query(ctx context.Context, vector []float32, k int, patientID string) ([]types.ScoredChunk, error) {
	if k <= 0 {
		return nil, types.ErrInvalidLimit
	}
	if len(vector) == 0 {
		return nil, embedder.ErrNoInput
	}
	if meta, ok := s.meta(); ok && len(vector) != meta.Dimensions {
		return nil, embedder.NewDimensionMismatchError(meta.Dimensions, len(vector))
	}

	prefix := []byte(chunkPrefix)
	if patientID != "" {
		prefix = []byte(chunkPrefix + patientID + "/")
	}

	var scored []types.ScoredChunk
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk types.Chunk
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			})
			if err != nil {
				return fmt.Errorf("failed to decode chunk: %w", err)
			}
			scored = append(scored, types.ScoredChunk{
				Chunk: chunk,
				Score: utils.CosineSimilarity(vector, chunk.Embedding),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Clear removes all chunks for one patient.
func (s *BadgerStore) Clear(ctx context.Context, patientID string) error {
	if patientID == "" {
		return types.ErrEmptyPatientID
	}
	if err := s.db.DropPrefix([]byte(chunkPrefix + patientID + "/")); err != nil {
		return fmt.Errorf("failed to clear patient %s: %w", patientID, err)
	}
	s.log.Info("cleared patient chunks", slog.String("patient_id", patientID))
	return nil
}

// Count reports the number of indexed chunks.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if !bytes.HasPrefix(it.Item().Key(), []byte(chunkPrefix)) {
				continue
			}
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerStore) meta() (collectionMeta, bool) {
	var meta collectionMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	return meta, err == nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

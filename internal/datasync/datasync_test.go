package datasync

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/sanabot/internal/dictionary"
	mock_dictionary "github.com/at-ishikawa/sanabot/internal/mocks/dictionary"
)

func TestImporter_ImportAnalyses(t *testing.T) {
	kala := dictionary.AnalysisEntry{Word: "kala", Analysis: "FISH"}
	koira := dictionary.AnalysisEntry{Word: "Koira", Analysis: "DOG"}

	tests := []struct {
		name       string
		entries    []dictionary.AnalysisEntry
		opts       ImportOptions
		setupMocks func(repo *mock_dictionary.MockAnalysisRepository)
		want       *ImportResult
		wantOutput string
	}{
		{
			name:    "new entries are stored under their normalized word",
			entries: []dictionary.AnalysisEntry{kala, koira},
			setupMocks: func(repo *mock_dictionary.MockAnalysisRepository) {
				repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(nil, nil)
				repo.EXPECT().Upsert(gomock.Any(), &dictionary.AnalysisEntry{Word: "kala", Analysis: "FISH"}).Return(nil)
				repo.EXPECT().FindByWord(gomock.Any(), "koira").Return(nil, nil)
				repo.EXPECT().Upsert(gomock.Any(), &dictionary.AnalysisEntry{Word: "koira", Analysis: "DOG"}).Return(nil)
			},
			want: &ImportResult{New: 2},
		},
		{
			name:    "existing entries are skipped by default",
			entries: []dictionary.AnalysisEntry{kala},
			setupMocks: func(repo *mock_dictionary.MockAnalysisRepository) {
				repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(&dictionary.AnalysisEntry{Word: "kala", Analysis: "OLD"}, nil)
			},
			want: &ImportResult{Skipped: 1},
		},
		{
			name:    "existing entries are replaced with UpdateExisting",
			entries: []dictionary.AnalysisEntry{kala},
			opts:    ImportOptions{UpdateExisting: true},
			setupMocks: func(repo *mock_dictionary.MockAnalysisRepository) {
				repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(&dictionary.AnalysisEntry{Word: "kala", Analysis: "OLD"}, nil)
				repo.EXPECT().Upsert(gomock.Any(), &dictionary.AnalysisEntry{Word: "kala", Analysis: "FISH"}).Return(nil)
			},
			want: &ImportResult{Updated: 1},
		},
		{
			name:    "dry run does not write",
			entries: []dictionary.AnalysisEntry{kala},
			opts:    ImportOptions{DryRun: true},
			setupMocks: func(repo *mock_dictionary.MockAnalysisRepository) {
				repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(nil, nil)
			},
			want: &ImportResult{New: 1},
		},
		{
			name:       "invalid entries are reported",
			entries:    []dictionary.AnalysisEntry{{Word: "kala"}, {Word: " ", Analysis: "X"}},
			setupMocks: func(repo *mock_dictionary.MockAnalysisRepository) {},
			want:       &ImportResult{Invalid: 2},
			wantOutput: "skipping invalid entry \"kala\": word and analysis are required\n" +
				"skipping invalid entry \"\": word and analysis are required\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_dictionary.NewMockAnalysisRepository(ctrl)
			tt.setupMocks(repo)

			var out bytes.Buffer
			got, err := NewImporter(repo, &out).ImportAnalyses(context.Background(), tt.entries, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOutput, out.String())
		})
	}

	t.Run("read error stops the import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_dictionary.NewMockAnalysisRepository(ctrl)
		storageErr := &dictionary.StorageError{Op: dictionary.OpRead, Word: "kala", Err: errors.New("locked")}
		repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(nil, storageErr)

		_, err := NewImporter(repo, &bytes.Buffer{}).ImportAnalyses(context.Background(), []dictionary.AnalysisEntry{kala}, ImportOptions{})
		assert.ErrorIs(t, err, storageErr)
	})

	t.Run("write error stops the import", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_dictionary.NewMockAnalysisRepository(ctrl)
		storageErr := &dictionary.StorageError{Op: dictionary.OpWrite, Word: "kala", Err: errors.New("disk full")}
		repo.EXPECT().FindByWord(gomock.Any(), "kala").Return(nil, nil)
		repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(storageErr)

		_, err := NewImporter(repo, &bytes.Buffer{}).ImportAnalyses(context.Background(), []dictionary.AnalysisEntry{kala}, ImportOptions{})
		assert.ErrorIs(t, err, storageErr)
	})
}

func TestExporter_Export(t *testing.T) {
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("returns all entries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_dictionary.NewMockAnalysisRepository(ctrl)
		want := []dictionary.AnalysisEntry{
			{Word: "kala", Analysis: "FISH", CreatedAt: createdAt},
			{Word: "koira", Analysis: "DOG", CreatedAt: createdAt},
		}
		repo.EXPECT().FindAll(gomock.Any()).Return(want, nil)

		got, err := NewExporter(repo).Export(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("storage error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_dictionary.NewMockAnalysisRepository(ctrl)
		repo.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("connection refused"))

		_, err := NewExporter(repo).Export(context.Background())
		assert.Error(t, err)
	})
}

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"content-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func envelopeReader(t *testing.T, env envelope) io.ReadCloser {
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return io.NopCloser(bytes.NewReader(data))
}

func TestObjectStore_Initialize(t *testing.T) {
	t.Run("Creates Missing Bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "cache-bucket").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "cache-bucket", mock.Anything).Return(nil)

		s := NewObjectStore(client, "cache-bucket", "cache", time.Second)
		assert.NoError(t, s.Initialize(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("Backend Unavailable", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "cache-bucket").Return(false, errors.New("connection refused"))

		s := NewObjectStore(client, "cache-bucket", "cache", time.Second)
		err := s.Initialize(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestObjectStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "b", "cache/global:k.json", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

		s := NewObjectStore(client, "b", "cache", 0)
		got, err := s.Get(ctx, "k", "")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Hit", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "b", "cache/acme:k.json", mock.Anything).
			Return(envelopeReader(t, envelope{ExpiresAt: &future, Value: []byte("payload")}), nil)

		s := NewObjectStore(client, "b", "cache", 0)
		got, err := s.Get(ctx, "k", "acme")
		assert.NoError(t, err)
		assert.Equal(t, []byte("payload"), got)
	})

	t.Run("Expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "b", "cache/global:k.json", mock.Anything).
			Return(envelopeReader(t, envelope{ExpiresAt: &past, Value: []byte("old")}), nil)
		client.On("RemoveObject", mock.Anything, "b", "cache/global:k.json", mock.Anything).Return(nil)

		s := NewObjectStore(client, "b", "cache", 0)
		got, err := s.Get(ctx, "k", "")
		assert.NoError(t, err)
		assert.Nil(t, got)
		client.AssertCalled(t, "RemoveObject", mock.Anything, "b", "cache/global:k.json", mock.Anything)
	})

	t.Run("Corrupt", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "b", "cache/global:k.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte("not-json"))), nil)

		s := NewObjectStore(client, "b", "cache", 0)
		_, err := s.Get(ctx, "k", "")
		assert.Error(t, err)
	})
}

func TestObjectStore_SetRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	var stored []byte
	client.On("PutObject", mock.Anything, "b", "cache/global:k.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, _ := io.ReadAll(args.Get(3).(io.Reader))
			stored = data
		}).
		Return(minio.UploadInfo{}, nil)

	s := NewObjectStore(client, "b", "cache", 0)
	require.NoError(t, s.Set(ctx, "k", []byte("value"), time.Minute, ""))

	var env envelope
	require.NoError(t, json.Unmarshal(stored, &env))
	assert.Equal(t, []byte("value"), env.Value)
	require.NotNil(t, env.ExpiresAt)
	assert.True(t, env.ExpiresAt.After(time.Now()))
}

func TestObjectStore_Delete(t *testing.T) {
	client := new(mocks.Client)
	client.On("RemoveObject", mock.Anything, "b", "global:k.json", mock.Anything).Return(nil)

	s := NewObjectStore(client, "b", "", 0)
	assert.NoError(t, s.Delete(context.Background(), "k", ""))
	client.AssertExpectations(t)
}

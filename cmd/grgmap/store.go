package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/grgmap/blobstore"
	"github.com/hupe1980/grgmap/blobstore/minio"
	"github.com/hupe1980/grgmap/blobstore/s3"
	"github.com/hupe1980/grgmap/internal/config"
)

// memoryStores holds memory stores by path for the lifetime of the process.
var (
	memoryStoresMu sync.Mutex
	memoryStores   = map[string]*blobstore.MemoryStore{}
)

func memoryStore(path string) *blobstore.MemoryStore {
	memoryStoresMu.Lock()
	defer memoryStoresMu.Unlock()
	ms, ok := memoryStores[path]
	if !ok {
		ms = blobstore.NewMemoryStore()
		memoryStores[path] = ms
	}
	return ms
}

func openStore(ctx context.Context, cfg config.StoreConfig, cacheBlocks int) (blobstore.BlobStore, error) {
	var (
		store  blobstore.BlobStore
		remote bool
	)

	switch cfg.Kind {
	case config.StoreLocal:
		store = blobstore.NewLocalStore(cfg.Path)
	case config.StoreMemory:
		store = memoryStore(cfg.Path)
	case config.StoreS3:
		s, err := s3.New(ctx, cfg.Bucket,
			s3.WithPrefix(cfg.Prefix),
			s3.WithRegion(cfg.Region),
			s3.WithEndpoint(cfg.Endpoint),
			s3.WithPathStyle(cfg.PathStyle),
		)
		if err != nil {
			return nil, err
		}
		store, remote = s, true
	case config.StoreMinio:
		accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
		if accessKey == "" {
			accessKey = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secretKey == "" {
			secretKey = os.Getenv("MINIO_SECRET_KEY")
		}
		s, err := minio.New(ctx, cfg.Endpoint, cfg.Bucket,
			minio.WithCredentials(accessKey, secretKey),
			minio.WithSecure(cfg.Secure),
			minio.WithRegion(cfg.Region),
			minio.WithPrefix(cfg.Prefix),
		)
		if err != nil {
			return nil, err
		}
		store, remote = s, true
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if remote && cacheBlocks > 0 {
		cs, err := blobstore.NewCachingStore(store, cacheBlocks, blobstore.DefaultBlockSize)
		if err != nil {
			return nil, err
		}
		return cs, nil
	}
	return store, nil
}

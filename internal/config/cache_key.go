package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// FilterResultKey returns the cache key for a filter result computed against
// a specific dataset version. selection must already be a stable encoding.
func (r *CacheKeyStruct) FilterResultKey(datasetVersion, selection string) string {
	return fmt.Sprintf("partnermap:%s:filter:%s", datasetVersion, selection)
}

var CacheKey = NewCacheKeyStruct()

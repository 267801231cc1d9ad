package store

import "github.com/syndtr/goleveldb/leveldb/util"

// rangeForPrefix returns the key Range that spans every key beginning
// with prefix.
func rangeForPrefix(prefix []byte) *util.Range {
	return util.BytesPrefix(prefix)
}

// Package leveldb implements the ability to read and write blocks to a
// leveldb key/value store, keyed by big-endian block number so blocks
// iterate in height order.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/cometchain/comet/foundation/blockchain/database"
)

// LevelDB represents the serialization implementation for reading and
// storing blocks in a leveldb database. This implements the
// database.Serializer interface.
type LevelDB struct {
	dbPath string
	db     *leveldb.DB
}

// New constructs a LevelDB value for use, creating the database at the
// specified path when it doesn't exist yet.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{dbPath: dbPath, db: db}, nil
}

// Close releases the underlying database handle.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write takes the specified database block and stores it under its
// block number.
func (l *LevelDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(blockData.Header.Number), data, nil)
}

// GetBlock locates and returns the contents of the specified block
// by number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with block number 1.
func (l *LevelDB) ForEach() database.Iterator {
	return &levelIterator{storage: l}
}

// Reset removes the database files and reopens an empty database.
func (l *LevelDB) Reset() error {
	if err := l.db.Close(); err != nil {
		return err
	}

	if err := os.RemoveAll(l.dbPath); err != nil {
		return err
	}

	db, err := leveldb.OpenFile(l.dbPath, nil)
	if err != nil {
		return err
	}
	l.db = db

	return nil
}

// blockKey forms the big-endian key for the specified block number.
func blockKey(num uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, num)
	return key
}

// =============================================================================

// levelIterator represents the iteration implementation for walking
// through the blocks in the store. This implements the database
// Iterator interface.
type levelIterator struct {
	storage *LevelDB // Access to the LevelDB storage API.
	current uint64   // Current block number being iterated over.
	eoc     bool     // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the store.
func (li *levelIterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	li.current++
	blockData, err := li.storage.GetBlock(li.current)
	if errors.Is(err, leveldb.ErrNotFound) {
		li.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}

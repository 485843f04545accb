package topology

import (
	"fmt"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/weave/src/common"
	"github.com/sirupsen/logrus"
)

const (
	declPrefix = "decl_"
)

// BadgerStore implements the Store interface on top of a badger database.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens, or creates, the database at path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false)

	if logger != nil {
		opts = opts.WithLogger(logger.WithField("prefix", "badger"))
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

// Put implements the Store interface.
func (s *BadgerStore) Put(d Declaration) error {
	d = NewDeclaration(d.ID, d.Children)

	val, err := d.Marshal()
	if err != nil {
		return err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	//insert [decl_id] => [declaration bytes]
	if err := tx.Set(declKey(d.ID), val); err != nil {
		return err
	}

	return tx.Commit()
}

// Get implements the Store interface.
func (s *BadgerStore) Get(id uint32) (Declaration, error) {
	var declBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(declKey(id))
		if err != nil {
			return err
		}
		declBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return Declaration{}, mapError(err, id)
	}

	var d Declaration
	if err := d.Unmarshal(declBytes); err != nil {
		return Declaration{}, err
	}

	return d, nil
}

// Delete implements the Store interface.
func (s *BadgerStore) Delete(id uint32) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(declKey(id))
	})
}

// Declarations implements the Store interface. Keys are zero-padded so that
// iteration returns declarations sorted by id.
func (s *BadgerStore) Declarations() ([]Declaration, error) {
	var res []Declaration

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(declPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var d Declaration
			if err := d.Unmarshal(val); err != nil {
				return err
			}
			res = append(res, d)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return res, nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath returns the database directory.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func declKey(id uint32) []byte {
	return []byte(fmt.Sprintf("%s%010d", declPrefix, id))
}

func isDBKeyNotFound(err error) bool {
	return err.Error() == badger.ErrKeyNotFound.Error()
}

func mapError(err error, id uint32) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewNodeErr("BadgerStore", cm.NodeNotFound, id)
		}
	}
	return err
}

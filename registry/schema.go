// Package registry stores the label-keyed channel and media tables of a peer
// session in an in-memory database.
package registry

import "github.com/hashicorp/go-memdb"

// Table names.
const (
	TableSendMedia    = "send_media"
	TableReceiveMedia = "receive_media"
	TableDataChannels = "data_channels"
)

const idxLabel = "id"

// entry is the stored row. Value is owned by the registry's caller.
type entry struct {
	Key   string
	Label string
	Value any
}

// key derives the indexed value of label. memdb string indexes reject empty
// values, and the empty label is a valid channel label.
func key(label string) string {
	return "\x00" + label
}

func table(name string) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: name,
		Indexes: map[string]*memdb.IndexSchema{
			idxLabel: {
				Name:    idxLabel,
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "Key"},
			},
		},
	}
}

// schema is the schema of the registry database.
var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		TableSendMedia:    table(TableSendMedia),
		TableReceiveMedia: table(TableReceiveMedia),
		TableDataChannels: table(TableDataChannels),
	},
}

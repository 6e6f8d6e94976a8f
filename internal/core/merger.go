package core

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/juju/collections/set"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// MergerOption configures a Merger at construction.
type MergerOption func(*Merger)

// WithExecutionRoot makes persisted paths relative to root so the state
// stays valid when the build directory moves.
func WithExecutionRoot(root string) MergerOption {
	return func(m *Merger) {
		if root != "" {
			m.executionRoot = filepath.Clean(root)
		}
	}
}

// WithIgnorePolicy sets the policy given to data sets restored from a blob.
func WithIgnorePolicy(policy policies.IgnorePolicy) MergerOption {
	return func(m *Merger) {
		m.ignore = policy
	}
}

// Merger combines ordered DataSets: a set at a higher index overrides the
// same key in every lower set. Like DataSet it is driven from a single
// goroutine.
type Merger struct {
	dataSets      []*DataSet
	parser        ports.ResourceParserPort
	generation    string
	executionRoot string
	ignore        policies.IgnorePolicy
}

func NewMerger(parser ports.ResourceParserPort, opts ...MergerOption) *Merger {
	m := &Merger{parser: parser, generation: uuid.NewString()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generation identifies the merge state lineage. It is persisted with the
// blob and kept across LoadFromBlob.
func (m *Merger) Generation() string {
	return m.generation
}

func (m *Merger) AddDataSet(set *DataSet) {
	m.dataSets = append(m.dataSets, set)
}

// DataSets returns the sets in precedence order, lowest first.
func (m *Merger) DataSets() []*DataSet {
	out := make([]*DataSet, len(m.dataSets))
	copy(out, m.dataSets)
	return out
}

func (m *Merger) DataSet(name string) (*DataSet, bool) {
	for _, set := range m.dataSets {
		if set.Name() == name {
			return set, true
		}
	}
	return nil, false
}

// LoadFromFiles loads every set from disk. Parse errors of all sets are
// joined into one *types.MergeError; any other failure aborts the load.
func (m *Merger) LoadFromFiles(ctx context.Context) error {
	var failures []types.MergeMessage
	for _, set := range m.dataSets {
		err := set.LoadFromFiles(ctx)
		if err == nil {
			continue
		}
		var mergeErr *types.MergeError
		if !errors.As(err, &mergeErr) || mergeErr.Kind != types.MergeErrorParse {
			return err
		}
		failures = append(failures, mergeErr.Messages...)
	}
	if len(failures) > 0 {
		return &types.MergeError{Kind: types.MergeErrorParse, Messages: failures}
	}
	return nil
}

// ValidateDataSets fails when a set holds two live items with the same key.
// It never picks a winner.
func (m *Merger) ValidateDataSets() error {
	var messages []types.MergeMessage
	for _, set := range m.dataSets {
		messages = append(messages, set.CheckItems()...)
	}
	if len(messages) == 0 {
		return nil
	}
	return &types.MergeError{Kind: types.MergeErrorDuplicate, Messages: messages}
}

// CheckValidUpdate reports whether the persisted state in m can be reused
// for sets: same count, order and names, and the same source folders per
// set regardless of their order.
func (m *Merger) CheckValidUpdate(sets []*DataSet) bool {
	if len(sets) != len(m.dataSets) {
		return false
	}
	for i, current := range m.dataSets {
		other := sets[i]
		if current.Name() != other.Name() {
			return false
		}
		mine := set.NewStrings(current.Sources()...)
		theirs := set.NewStrings(other.Sources()...)
		if mine.Size() != theirs.Size() || !mine.Difference(theirs).IsEmpty() {
			return false
		}
	}
	return true
}

// keys returns the union of item keys across all sets in stable order.
func (m *Merger) keys() []types.ItemKey {
	seen := map[types.ItemKey]struct{}{}
	var out []types.ItemKey
	for _, set := range m.dataSets {
		for key := range set.items {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sortKeys(out)
	return out
}

// MergeData emits the delta since the last write to consumer. For each key
// the item to write is the top-most live item; the item previously
// written is the top-most written one. When they differ the old output is
// removed before the new item is added. With doCleanUp, tombstones are
// purged afterwards and every live item is marked written.
func (m *Merger) MergeData(ctx context.Context, consumer ports.MergeConsumerPort, doCleanUp bool) error {
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	added, removed := 0, 0
	for _, key := range m.keys() {
		toWrite, previous := m.selectItems(key, consumer)
		switch {
		case toWrite == nil && previous == nil:
		case toWrite == nil:
			if err := consumer.RemoveItem(ctx, previous, nil); err != nil {
				return err
			}
			removed++
		case previous == nil || previous == toWrite:
			if err := consumer.AddItem(ctx, toWrite); err != nil {
				return err
			}
			if toWrite.State.IsTouched() {
				added++
			}
		default:
			if err := consumer.RemoveItem(ctx, previous, toWrite); err != nil {
				return err
			}
			toWrite.Touch()
			if err := consumer.AddItem(ctx, toWrite); err != nil {
				return err
			}
			removed++
			added++
		}
	}
	if err := consumer.End(ctx); err != nil {
		return err
	}
	if doCleanUp {
		for _, set := range m.dataSets {
			set.purge()
		}
	}
	log.Ctx(ctx).Info().
		Int("data_sets", len(m.dataSets)).
		Int("written", added).
		Int("removed", removed).
		Msg("merged resources")
	return nil
}

// selectItems walks the sets from the highest index down and returns the
// item to write and the item a previous pass wrote for key.
func (m *Merger) selectItems(key types.ItemKey, consumer ports.MergeConsumerPort) (toWrite *types.ResourceItem, previous *types.ResourceItem) {
	for i := len(m.dataSets) - 1; i >= 0; i-- {
		items := m.dataSets[i].items[key]
		for j := len(items) - 1; j >= 0; j-- {
			item := items[j]
			if consumer != nil && consumer.IgnoreItemInMerge(item) {
				continue
			}
			if previous == nil && item.State.IsWritten() {
				previous = item
			}
			if toWrite == nil && !item.IsRemoved() {
				toWrite = item
			}
			if toWrite != nil && previous != nil {
				return toWrite, previous
			}
		}
	}
	return toWrite, previous
}

// Table builds the authoritative table: the top-most live item per key.
// The table holds snapshots, so later updates of the sets never reach it.
func (m *Merger) Table() *types.ResourceTable {
	table := types.NewResourceTable()
	for _, key := range m.keys() {
		if item, _ := m.selectItems(key, nil); item != nil {
			table.Add(item.Snapshot())
		}
	}
	return table
}

// UpdateFile routes one change to the set owning the file: the set with the
// longest matching root, the higher set on a tie. It returns false when no
// set has a matching root.
func (m *Merger) UpdateFile(ctx context.Context, file string, status types.FileStatus) (bool, error) {
	var owner *DataSet
	ownerRoot := ""
	for i := len(m.dataSets) - 1; i >= 0; i-- {
		root, ok := m.dataSets[i].FindMatchingSourceFolder(file)
		if ok && len(root) > len(ownerRoot) {
			owner, ownerRoot = m.dataSets[i], root
		}
	}
	if owner == nil {
		return false, nil
	}
	return owner.UpdateWith(ctx, ownerRoot, file, status)
}

func (m *Merger) requireParser() error {
	if m.parser == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("merger requires a resource parser")
	}
	return nil
}

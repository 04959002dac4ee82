package activity_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/grabber"
	"github.com/velastools/velastools/pkg/rpc"
)

type storedRow struct {
	validatorID int64
	cluster     cluster.Cluster
	epoch       uint64
	value       int64
}

// fakeStore keeps records in memory and applies the same joint delete predicate as SQL.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	validators map[string]models.Validator
	rows       map[models.RecordKind][]storedRow
	getCalls   int
	failOn     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:     1,
		validators: map[string]models.Validator{},
		rows:       map[models.RecordKind][]storedRow{},
	}
}

func (s *fakeStore) seedValidator(nodePK, votePK string, cl cluster.Cluster) models.Validator {
	v, _, _ := s.GetOrCreateValidator(context.Background(), nodePK, votePK, cl)
	s.getCalls = 0
	return v
}

func (s *fakeStore) seedRow(kind models.RecordKind, validatorID int64, cl cluster.Cluster, epoch uint64, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[kind] = append(s.rows[kind], storedRow{validatorID, cl, epoch, value})
}

func (s *fakeStore) GetOrCreateValidator(_ context.Context, nodePK, votePK string, cl cluster.Cluster) (models.Validator, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if v, ok := s.validators[nodePK]; ok {
		return v, false, nil
	}
	v := models.Validator{ID: s.nextID, NodePK: nodePK, VotePK: votePK, Cluster: cl}
	s.nextID++
	s.validators[nodePK] = v
	return v, true, nil
}

func (s *fakeStore) ListValidators(_ context.Context, cl cluster.Cluster) ([]models.Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Validator
	for _, v := range s.validators {
		if v.Cluster == cl {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ReplaceEpochRows(_ context.Context, kind models.RecordKind, validatorID int64, cl cluster.Cluster, rows []models.EpochValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != 0 && s.failOn == validatorID {
		return errors.New("insert failed")
	}

	epochs := map[uint64]bool{}
	for _, r := range rows {
		epochs[r.Epoch] = true
	}
	kept := s.rows[kind][:0]
	for _, r := range s.rows[kind] {
		if r.validatorID == validatorID && r.cluster == cl && epochs[r.epoch] {
			continue
		}
		kept = append(kept, r)
	}
	for _, r := range rows {
		kept = append(kept, storedRow{validatorID, cl, r.Epoch, r.Value})
	}
	s.rows[kind] = kept
	return nil
}

func (s *fakeStore) MaxEpoch(context.Context, models.RecordKind, cluster.Cluster) (uint64, bool, error) {
	return 0, false, nil
}

func (s *fakeStore) WindowRows(context.Context, models.RecordKind, cluster.Cluster, int64) ([]models.WindowRow, error) {
	return nil, nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

// snapshot returns validatorID -> epoch -> value for kind on cl.
func (s *fakeStore) snapshot(kind models.RecordKind, cl cluster.Cluster) map[int64]map[uint64]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]map[uint64]int64{}
	for _, r := range s.rows[kind] {
		if r.cluster != cl {
			continue
		}
		if out[r.validatorID] == nil {
			out[r.validatorID] = map[uint64]int64{}
		}
		if _, dup := out[r.validatorID][r.epoch]; dup {
			panic("duplicate epoch row")
		}
		out[r.validatorID][r.epoch] = r.value
	}
	return out
}

type fakeRPCClient struct {
	mu       sync.Mutex
	accounts rpc.VoteAccounts
	err      error
	calls    int
}

func (f *fakeRPCClient) GetVoteAccounts(context.Context) (rpc.VoteAccounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.accounts, f.err
}

func (f *fakeRPCClient) GetVoteAccountsMerged(ctx context.Context) ([]rpc.VoteAccount, error) {
	v, err := f.GetVoteAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return rpc.MergeVoteAccounts(v), nil
}

func (f *fakeRPCClient) GetEpochInfo(context.Context) (rpc.EpochInfo, error) {
	return rpc.EpochInfo{}, nil
}

func (f *fakeRPCClient) GetBalance(context.Context, string) (uint64, error) { return 0, nil }

func (f *fakeRPCClient) GetClusterNodes(context.Context) ([]rpc.ClusterNode, error) {
	return nil, nil
}

type fakeRPCFactory struct {
	client    *fakeRPCClient
	endpoints [][]string
}

func (f *fakeRPCFactory) NewClient(endpoints []string) rpc.Client {
	f.endpoints = append(f.endpoints, endpoints)
	return f.client
}

// fakeGrabber serves canned rewards keyed by vote account, using the real runner-free path.
type fakeGrabber struct {
	mu        sync.Mutex
	rewards   map[string][]grabber.EpochReward
	err       error
	voteCalls []string
	epochs    []int
	endpoint  string
}

func (f *fakeGrabber) FetchRewards(_ context.Context, voteAccount, endpoint string, numEpochs int) (*grabber.RewardSeq, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voteCalls = append(f.voteCalls, voteAccount)
	f.epochs = append(f.epochs, numEpochs)
	f.endpoint = endpoint
	if f.err != nil {
		return nil, f.err
	}
	return grabber.NewRewardSeq(f.rewards[voteAccount]), nil
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (f *fakeCache) InvalidateCluster(_ context.Context, kind models.RecordKind, cl cluster.Cluster) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, string(kind)+":"+cl.String())
	return f.err
}

func credits(triples ...[3]int64) []rpc.EpochCredit {
	out := make([]rpc.EpochCredit, 0, len(triples))
	for _, t := range triples {
		out = append(out, rpc.EpochCredit{Epoch: uint64(t[0]), Max: t[1], Min: t[2]})
	}
	return out
}

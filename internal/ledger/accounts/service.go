package accounts

import (
	"context"
	"errors"
	"sort"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// ResolvePostingTargets batch-fetches the distinct account ids referenced by
// a posting and enforces the existence and leaf invariants. All missing ids
// are reported at once so an administrator can fix account setup in one pass.
func (s *Service) ResolvePostingTargets(ctx context.Context, ids []int64) (map[int64]Account, error) {
	distinct := dedupe(ids)
	found, err := s.repo.GetByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}
	var missing, nonLeaf []int64
	for _, id := range distinct {
		account, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !account.IsLeaf {
			nonLeaf = append(nonLeaf, id)
		}
	}
	if len(missing) > 0 {
		return nil, &ledgershared.AccountsNotFoundError{Missing: missing}
	}
	if len(nonLeaf) > 0 {
		return nil, &ledgershared.NonLeafAccountsError{IDs: nonLeaf}
	}
	return found, nil
}

// CreateInput describes a new chart-of-accounts node.
type CreateInput struct {
	Code     string
	Name     string
	Type     AccountType
	ParentID *int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if in.Code == "" || in.Name == "" {
		return Account{}, errors.New("accounts: code and name required")
	}
	if !in.Type.Valid() {
		return Account{}, errors.New("accounts: invalid account type")
	}
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			return Account{}, err
		}
		if parent.Type != in.Type {
			return Account{}, errors.New("accounts: parent type mismatch")
		}
	}
	created, err := s.repo.Insert(ctx, Account{
		Code:     in.Code,
		Name:     in.Name,
		Type:     in.Type,
		ParentID: in.ParentID,
		IsLeaf:   true,
		IsActive: true,
	})
	if err != nil {
		return Account{}, err
	}
	if in.ParentID != nil {
		if err := s.repo.MarkParentNonLeaf(ctx, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	return created, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"affirm/internal/rules/models"
	id "affirm/pkg/domain"
)

type RuleStoreSuite struct {
	suite.Suite
	ctx context.Context
}

func TestRuleStoreSuite(t *testing.T) {
	suite.Run(t, new(RuleStoreSuite))
}

func (s *RuleStoreSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *RuleStoreSuite) stores() map[string]Store {
	return map[string]Store{
		"memory": NewInMemory(),
		"file":   NewFile(filepath.Join(s.T().TempDir(), "rules.json")),
	}
}

func (s *RuleStoreSuite) TestReplaceAndList() {
	for name, st := range s.stores() {
		s.Run(name, func() {
			rules := []models.MatchingRule{
				{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleTypeExact, MinConfidence: 0.7, Enabled: true},
				{ID: id.NewRuleID(), FieldName: "party_b", RuleType: models.RuleTypeFuzzy, MinConfidence: 0.8, Enabled: false},
			}
			s.Require().NoError(st.Replace(s.ctx, rules))

			got, err := st.List(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(got, 2)
			s.Equal("isin", got[0].FieldName)
			s.Equal("party_b", got[1].FieldName)
		})
	}
}

func (s *RuleStoreSuite) TestReplaceRejectsBadSetWithoutClobbering() {
	for name, st := range s.stores() {
		s.Run(name, func() {
			good := []models.MatchingRule{
				{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleTypeExact, MinConfidence: 0.7, Enabled: true},
			}
			s.Require().NoError(st.Replace(s.ctx, good))

			bad := []models.MatchingRule{
				{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleType("regex"), Enabled: true},
			}
			s.Require().Error(st.Replace(s.ctx, bad))

			got, err := st.List(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(got, 1)
			s.Equal(models.RuleTypeExact, got[0].RuleType)
		})
	}
}

func (s *RuleStoreSuite) TestSnapshotIsolation() {
	for name, st := range s.stores() {
		s.Run(name, func() {
			s.Require().NoError(st.Replace(s.ctx, []models.MatchingRule{
				{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleTypeExact, MinConfidence: 0.7, Enabled: true},
			}))

			snap, err := st.Snapshot(s.ctx)
			s.Require().NoError(err)

			// Edit after the snapshot; the frozen set must not change.
			s.Require().NoError(st.Replace(s.ctx, []models.MatchingRule{
				{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleTypeExact, MinConfidence: 0.7, Enabled: false},
			}))

			_, ok := snap.Enabled("isin")
			s.True(ok, "snapshot must be copy-on-read")
		})
	}
}

func (s *RuleStoreSuite) TestSeedDefaults() {
	st := NewInMemory()
	s.Require().NoError(SeedDefaults(s.ctx, st))

	got, err := st.List(s.ctx)
	s.Require().NoError(err)
	s.Len(got, 15)

	// Seeding again must not duplicate.
	s.Require().NoError(SeedDefaults(s.ctx, st))
	got, err = st.List(s.ctx)
	s.Require().NoError(err)
	s.Len(got, 15)
}

func (s *RuleStoreSuite) TestFileStoreEmptyOnMissingFile() {
	st := NewFile(filepath.Join(s.T().TempDir(), "missing", "rules.json"))
	got, err := st.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/delegation"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/kv"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
	"github.com/vechain/govcore/numeric"
	"github.com/vechain/govcore/reverts"
	"github.com/vechain/govcore/storage"
	"github.com/vechain/govcore/votingpower"
)

var (
	logger = log.WithContext("pkg", "governance")

	metricProposals = metrics.LazyLoadCounterVec("governance_proposals_total", []string{"type"})
	metricVotes     = metrics.LazyLoadCounterVec("governance_votes_total", []string{"support"})
	metricActions   = metrics.LazyLoadCounterVec("governance_actions_total", []string{"result"})
	metricActive    = metrics.LazyLoadGauge("governance_active_proposals")
)

// allKey indexes every proposal id in creation order.
const allKey = "all"

// VotingPower provides fresh voting power figures.
type VotingPower interface {
	Snapshot(owner string) (*votingpower.Snapshot, error)
	TotalVotingPower() (*big.Int, error)
}

// Delegations is the delegation registry the engine exposes.
type Delegations interface {
	Delegate(delegator, delegatee string, amount *big.Int) (*delegation.Delegation, error)
	Revoke(delegator, delegatee string) (*delegation.RevokeResult, error)
	DelegationsOf(owner string) (inbound, outbound []*delegation.Delegation, err error)
}

// Engine runs the proposal lifecycle. Mutations are serialised per proposal.
type Engine struct {
	cfg         config.Governance
	power       VotingPower
	delegations Delegations
	dispatcher  *Dispatcher
	clock       clock.Clock
	events      events.Publisher

	proposals *storage.Mapping[*Proposal]
	votes     *storage.Mapping[*Vote]
	ids       *storage.Index // allKey -> proposal ids
	ballots   *storage.Index // proposal id -> vote keys
	locks     storage.Locker
}

// New creates an engine. A nil dispatcher rejects every action at execution time.
func New(
	store kv.Store,
	cfg *config.Config,
	power VotingPower,
	delegations Delegations,
	dispatcher *Dispatcher,
	clk clock.Clock,
	pub events.Publisher,
) *Engine {
	if pub == nil {
		pub = events.Discard
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	return &Engine{
		cfg:         cfg.Governance,
		power:       power,
		delegations: delegations,
		dispatcher:  dispatcher,
		clock:       clk,
		events:      pub,
		proposals:   storage.NewMapping[*Proposal](store, "governance/proposal", 1024),
		votes:       storage.NewMapping[*Vote](store, "governance/vote", 4096),
		ids:         storage.NewIndex(store, "governance/ids"),
		ballots:     storage.NewIndex(store, "governance/ballots"),
	}
}

// Dispatcher returns the action dispatcher, for handler registration.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.dispatcher
}

func voteKey(proposalID, voter string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(proposalID))
	h.Write([]byte{0})
	h.Write([]byte(voter))
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) emit(now time.Time, typ string, p *Proposal, owner string, payload map[string]string) {
	if payload == nil {
		payload = make(map[string]string)
	}
	payload["proposalId"] = p.ID
	payload["status"] = p.Status.String()
	e.events.Publish(events.New(now, typ, events.CategoryGovernance, owner, payload))
}

// CreateProposal opens a proposal for voting.
func (e *Engine) CreateProposal(req CreateRequest) (*Proposal, error) {
	logger.Debug("creating proposal", "proposer", req.Proposer, "type", req.Type, "actions", len(req.Actions))

	if req.Proposer == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "proposer is required")
	}
	pt, ok := e.cfg.ProposalType(req.Type)
	if !ok {
		return nil, reverts.Violation(reverts.RuleUnknownType, "unknown proposal type %q", req.Type)
	}
	if len(req.Actions) > e.cfg.MaxActions {
		return nil, reverts.Violation(reverts.RuleTooManyActions, "%d actions exceed the maximum of %d", len(req.Actions), e.cfg.MaxActions)
	}
	for i, a := range req.Actions {
		if !e.dispatcher.Has(a.Target) {
			return nil, reverts.Violation(reverts.RuleInvalidArgument, "action %d: unknown target %q", i, a.Target)
		}
	}

	snap, err := e.power.Snapshot(req.Proposer)
	if err != nil {
		return nil, err
	}
	if snap.Total.Cmp(e.cfg.ProposalThreshold) < 0 {
		return nil, reverts.Violation(reverts.RuleBelowThreshold, "voting power %v below proposal threshold %v", snap.Total, e.cfg.ProposalThreshold)
	}

	period := e.cfg.VotingPeriodDays
	if req.VotingPeriodDays > 0 {
		period = req.VotingPeriodDays
	}
	now := e.clock.Now()
	ends := now.Add(clock.Days(period))
	executable := ends.Add(clock.Days(pt.DelayDays))
	p := &Proposal{
		ID:                uuid.New(),
		Proposer:          req.Proposer,
		Type:              pt.Type,
		Category:          req.Category,
		Title:             req.Title,
		Description:       req.Description,
		Status:            StatusActive,
		Actions:           append([]Action(nil), req.Actions...),
		QuorumPct:         pt.QuorumPct.String(),
		ThresholdPct:      pt.ThresholdPct.String(),
		DelayDays:         pt.DelayDays,
		VotingStartsAt:    clock.Unix(now),
		VotingEndsAt:      clock.Unix(ends),
		ExecutableAt:      clock.Unix(executable),
		ExecutionDeadline: clock.Unix(executable.Add(clock.Days(e.cfg.ExecutionWindowDays))),
		ForVotes:          new(big.Int),
		AgainstVotes:      new(big.Int),
		AbstainVotes:      new(big.Int),
		TotalVotes:        new(big.Int),
		TotalPower:        new(big.Int),
		CreatedAt:         clock.Unix(now),
	}
	if err := e.proposals.Insert(p.ID, p); err != nil {
		return nil, err
	}
	if err := e.ids.Add(allKey, p.ID); err != nil {
		return nil, err
	}

	metricProposals().AddWithLabel(1, map[string]string{"type": p.Type})
	e.emit(now, events.ProposalCreated, p, p.Proposer, map[string]string{
		"type":         p.Type,
		"title":        p.Title,
		"votingEndsAt": strconv.FormatUint(p.VotingEndsAt, 10),
	})
	logger.Info("created proposal", "proposalId", p.ID, "type", p.Type, "endsAt", ends)
	return p, nil
}

// Vote casts voter's ballot with its current voting power.
func (e *Engine) Vote(id, voter string, support Support, reason string) (*Vote, error) {
	logger.Debug("casting vote", "proposalId", id, "voter", voter, "support", support)

	if support != SupportFor && support != SupportAgainst && support != SupportAbstain {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "invalid support %d", support)
	}
	if voter == "" {
		return nil, reverts.Violation(reverts.RuleInvalidArgument, "voter is required")
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	p, now, err := e.loadResolved(id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, reverts.Violation(reverts.RuleNotActive, "proposal %s is %s", id, p.Status)
	}

	key := voteKey(id, voter)
	if cast, err := e.votes.Has(key); err != nil {
		return nil, err
	} else if cast {
		return nil, reverts.Violation(reverts.RuleDoubleVote, "%s already voted on %s", voter, id)
	}

	snap, err := e.power.Snapshot(voter)
	if err != nil {
		return nil, err
	}
	if snap.Total.Sign() <= 0 {
		return nil, reverts.Violation(reverts.RuleNoVotingPower, "%s has no voting power", voter)
	}

	v := &Vote{
		ID:         uuid.New(),
		ProposalID: id,
		Voter:      voter,
		Support:    support,
		Power:      snap.Total,
		Reason:     reason,
		CastAt:     clock.Unix(now),
	}
	if err := e.votes.Insert(key, v); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return nil, reverts.Violation(reverts.RuleDoubleVote, "%s already voted on %s", voter, id)
		}
		return nil, err
	}
	if err := e.ballots.Add(id, key); err != nil {
		return nil, err
	}

	switch support {
	case SupportFor:
		p.ForVotes.Add(p.ForVotes, v.Power)
	case SupportAgainst:
		p.AgainstVotes.Add(p.AgainstVotes, v.Power)
	case SupportAbstain:
		p.AbstainVotes.Add(p.AbstainVotes, v.Power)
	}
	p.TotalVotes.Add(p.TotalVotes, v.Power)
	p.VoterCount++
	if err := e.proposals.Update(id, p); err != nil {
		return nil, err
	}

	metricVotes().AddWithLabel(1, map[string]string{"support": support.String()})
	e.emit(now, events.VoteCast, p, voter, map[string]string{
		"support": support.String(),
		"power":   v.Power.String(),
	})
	logger.Info("vote cast", "proposalId", id, "voter", voter, "power", v.Power)
	return v, nil
}

// Cancel withdraws an active proposal. Only the proposer may cancel.
func (e *Engine) Cancel(id, caller string) (*Proposal, error) {
	logger.Debug("cancelling proposal", "proposalId", id, "caller", caller)

	unlock := e.locks.Lock(id)
	defer unlock()

	p, now, err := e.loadResolved(id)
	if err != nil {
		return nil, err
	}
	if p.Proposer != caller {
		return nil, reverts.Violation(reverts.RuleUnauthorized, "only the proposer can cancel %s", id)
	}
	if p.Status != StatusActive {
		return nil, reverts.Violation(reverts.RuleNotActive, "proposal %s is %s", id, p.Status)
	}

	p.Status = StatusCancelled
	p.CancelledAt = clock.Unix(now)
	if err := e.proposals.Update(id, p); err != nil {
		return nil, err
	}
	e.emit(now, events.ProposalCancelled, p, caller, nil)
	logger.Info("cancelled proposal", "proposalId", id)
	return p, nil
}

// Queue marks a passed proposal as scheduled for execution.
func (e *Engine) Queue(id string) (*Proposal, error) {
	logger.Debug("queueing proposal", "proposalId", id)

	unlock := e.locks.Lock(id)
	defer unlock()

	p, now, err := e.loadResolved(id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPassed {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "proposal %s is %s", id, p.Status)
	}

	p.Status = StatusQueued
	p.QueuedAt = clock.Unix(now)
	if err := e.proposals.Update(id, p); err != nil {
		return nil, err
	}
	e.emit(now, events.ProposalQueued, p, p.Proposer, map[string]string{
		"executableAt": strconv.FormatUint(p.ExecutableAt, 10),
	})
	logger.Info("queued proposal", "proposalId", id)
	return p, nil
}

// Proposal returns a proposal, resolving it first if a deadline has passed.
func (e *Engine) Proposal(id string) (*Proposal, error) {
	p, err := e.load(id)
	if err != nil {
		return nil, err
	}
	if !needsAdvance(p, e.clock.Now()) {
		return p, nil
	}
	return e.Resolve(id)
}

// Proposals returns every proposal in creation order.
func (e *Engine) Proposals() ([]*Proposal, error) {
	ids, err := e.ids.List(allKey)
	if err != nil {
		return nil, err
	}
	out := make([]*Proposal, 0, len(ids))
	for _, id := range ids {
		p, err := e.Proposal(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// VotesOf returns the ballots of a proposal in cast order.
func (e *Engine) VotesOf(id string) ([]*Vote, error) {
	if _, err := e.load(id); err != nil {
		return nil, err
	}
	keys, err := e.ballots.List(id)
	if err != nil {
		return nil, err
	}
	out := make([]*Vote, 0, len(keys))
	for _, k := range keys {
		v, found, err := e.votes.Get(k)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, v)
		}
	}
	return out, nil
}

// Resolve applies every time based transition due for the proposal and persists it.
func (e *Engine) Resolve(id string) (*Proposal, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	p, _, err := e.loadResolved(id)
	return p, err
}

// AdvanceAll resolves every proposal with a passed deadline and returns how many changed.
func (e *Engine) AdvanceAll() (int, error) {
	ids, err := e.ids.List(allKey)
	if err != nil {
		return 0, err
	}
	n, active := 0, 0
	for _, id := range ids {
		p, err := e.load(id)
		if err != nil {
			return n, err
		}
		if !needsAdvance(p, e.clock.Now()) {
			if p.Status == StatusActive {
				active++
			}
			continue
		}
		if _, err := e.Resolve(id); err != nil {
			return n, err
		}
		n++
	}
	metricActive().Set(int64(active))
	return n, nil
}

// Delegate records a delegation through the registry.
func (e *Engine) Delegate(delegator, delegatee string, amount *big.Int) (*delegation.Delegation, error) {
	return e.delegations.Delegate(delegator, delegatee, amount)
}

// RevokeDelegation revokes the latest delegation of the pair. Cast votes keep their power.
func (e *Engine) RevokeDelegation(delegator, delegatee string) (*delegation.RevokeResult, error) {
	return e.delegations.Revoke(delegator, delegatee)
}

// Delegations returns the delegations received and granted by owner.
func (e *Engine) Delegations(owner string) (inbound, outbound []*delegation.Delegation, err error) {
	return e.delegations.DelegationsOf(owner)
}

func (e *Engine) load(id string) (*Proposal, error) {
	p, found, err := e.proposals.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reverts.NotFound("proposal", id)
	}
	return p, nil
}

// loadResolved loads the proposal and persists any due transition. Callers hold the
// proposal lock.
func (e *Engine) loadResolved(id string) (*Proposal, time.Time, error) {
	now := e.clock.Now()
	p, err := e.load(id)
	if err != nil {
		return nil, now, err
	}
	transitions, err := e.advance(p, now)
	if err != nil {
		return nil, now, err
	}
	if len(transitions) == 0 {
		return p, now, nil
	}
	if err := e.proposals.Update(id, p); err != nil {
		return nil, now, err
	}
	for _, typ := range transitions {
		payload := map[string]string{}
		if typ == events.ProposalResolved {
			payload["participationBps"] = strconv.FormatUint(p.ParticipationBps, 10)
			payload["forBps"] = strconv.FormatUint(p.ForBps, 10)
			payload["quorumReached"] = strconv.FormatBool(p.QuorumReached)
		}
		e.emit(now, typ, p, p.Proposer, payload)
	}
	return p, now, nil
}

func needsAdvance(p *Proposal, now time.Time) bool {
	ts := clock.Unix(now)
	switch p.Status {
	case StatusActive:
		return ts > p.VotingEndsAt
	case StatusPassed, StatusQueued:
		return ts > p.ExecutionDeadline
	}
	return false
}

// advance applies due transitions to p in memory and returns the event types to emit.
// Tallies are evaluated once; resolved proposals are never re-evaluated.
func (e *Engine) advance(p *Proposal, now time.Time) ([]string, error) {
	var transitions []string
	ts := clock.Unix(now)

	if p.Status == StatusActive && ts > p.VotingEndsAt {
		total, err := e.power.TotalVotingPower()
		if err != nil {
			return nil, err
		}
		p.TotalPower = total
		p.ParticipationBps = numeric.Bps(p.TotalVotes, total)
		p.QuorumReached = numeric.AtLeastPercent(p.TotalVotes, total, p.Quorum())
		if p.QuorumReached {
			p.ForBps = numeric.Bps(p.ForVotes, p.TotalVotes)
			p.Passed = numeric.AtLeastPercent(p.ForVotes, p.TotalVotes, p.Threshold())
		}
		if p.Passed {
			p.Status = StatusPassed
		} else {
			p.Status = StatusFailed
		}
		p.ResolvedAt = ts
		transitions = append(transitions, events.ProposalResolved)
		logger.Info("resolved proposal", "proposalId", p.ID, "status", p.Status,
			"participationBps", p.ParticipationBps, "forBps", p.ForBps)
	}

	if (p.Status == StatusPassed || p.Status == StatusQueued) && ts > p.ExecutionDeadline {
		p.Status = StatusExpired
		p.ExpiredAt = ts
		transitions = append(transitions, events.ProposalExpired)
		logger.Info("proposal expired", "proposalId", p.ID)
	}
	return transitions, nil
}

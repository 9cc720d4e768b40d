// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"context"
	"strconv"

	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/events"
	"github.com/vechain/govcore/reverts"
)

// Execute applies the actions of a passed or queued proposal in order once its delay
// has elapsed. A failing action does not undo the ones before it; every outcome is
// recorded on the proposal.
func (e *Engine) Execute(ctx context.Context, id, executor string) (*ExecutionReport, error) {
	logger.Debug("executing proposal", "proposalId", id, "executor", executor)

	unlock := e.locks.Lock(id)
	defer unlock()

	p, now, err := e.loadResolved(id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPassed && p.Status != StatusQueued {
		return nil, reverts.Violation(reverts.RuleInvalidStatus, "proposal %s is %s", id, p.Status)
	}
	if clock.Unix(now) < p.ExecutableAt {
		return nil, reverts.Violation(reverts.RuleTimelock, "proposal %s is executable from %v", id, clock.FromUnix(p.ExecutableAt))
	}

	report := &ExecutionReport{ProposalID: id, Results: make([]ActionResult, 0, len(p.Actions))}
	for i, action := range p.Actions {
		res := ActionResult{Index: uint64(i), Target: action.Target}
		err := ctx.Err()
		if err == nil {
			err = e.dispatcher.Dispatch(ctx, p, action)
		}
		if err != nil {
			res.Error = err.Error()
			report.Failed++
			logger.Warn("proposal action failed", "proposalId", id, "index", i, "target", action.Target, "error", err)
		} else {
			res.Success = true
			report.Succeeded++
		}
		metricActions().AddWithLabel(1, map[string]string{"result": strconv.FormatBool(res.Success)})
		report.Results = append(report.Results, res)
	}

	p.Status = StatusExecuted
	p.Results = report.Results
	p.ExecutedAt = clock.Unix(now)
	p.ExecutedBy = executor
	if err := e.proposals.Update(id, p); err != nil {
		return nil, err
	}

	e.emit(now, events.ProposalExecuted, p, executor, map[string]string{
		"succeeded": strconv.Itoa(report.Succeeded),
		"failed":    strconv.Itoa(report.Failed),
	})
	logger.Info("executed proposal", "proposalId", id, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

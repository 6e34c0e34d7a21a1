// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package linkquality

// scoreEpsilon guards the link-cost division against a zero score.
const scoreEpsilon = 0.001

// costCap is the maximum link cost reported to routing, used both when
// PER saturates at 100% and when the ETX/score ratio would otherwise
// blow up for a nearly-dead link.
const costCap = 100.0

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// computeScore implements the weighted link-quality score from spec
// §4.3: score = clamp01(0.4*rssi_n + 0.3*snr_n + 0.3*per_n).
func computeScore(rssiDBM, snrDB, perPct float64) float64 {
	rssiN := (rssiDBM + 120) / 90
	snrN := snrDB / 30
	perN := (100 - perPct) / 100
	return clamp01(0.4*rssiN + 0.3*snrN + 0.3*perN)
}

// computeLinkCost implements the ETX-flavored cost from spec §4.3:
// etx = 1/(1-per/100), capped at 100 when per saturates; link_cost =
// min(etx/max(score,eps), 100).
func computeLinkCost(perPct, score float64) float64 {
	var etx float64
	if perPct < 100 {
		etx = 1 / (1 - perPct/100)
	} else {
		etx = costCap
	}
	denom := score
	if denom < scoreEpsilon {
		denom = scoreEpsilon
	}
	cost := etx / denom
	if cost > costCap {
		cost = costCap
	}
	return cost
}

func isLinkActive(rssiDBM, snrDB, perPct float64, th Thresholds) bool {
	return rssiDBM > th.RSSIActiveDBM && snrDB > th.SNRActiveDB && perPct < th.PERActivePct
}

func isUsableLocked(n *NeighborLinkState, th Thresholds) bool {
	return n.LinkActive && n.RSSI >= th.UsableRSSIDBM && n.SNR >= th.UsableSNRDB && n.PER < th.UsablePERPct
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package protocol

import (
	"fmt"
	"sort"
	"strings"

	"disorderbook/internal/account"
)

// renderScores builds the __SCORES__ HTML scoreboard (spec section 6): a
// table of account name, shares, cash and NAV, sorted by account id. No
// revision of original_source/ available to this project fixes an exact
// markup, so the shape below (a single <table>, one row per account) is
// this implementation's own reasonable rendering, per SPEC_FULL.md.
func renderScores(accts []*account.Account, lastPrice int64) string {
	sorted := make([]*account.Account, len(accts))
	copy(sorted, accts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b strings.Builder
	b.WriteString("<table>\n")
	b.WriteString("<tr><th>Account</th><th>Shares</th><th>Cents</th><th>NAV</th></tr>\n")
	for _, a := range sorted {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>\n",
			a.Name, a.Shares, a.Cents, a.NAV(lastPrice))
	}
	b.WriteString("</table>\n")
	return b.String()
}

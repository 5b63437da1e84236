package ledger

// Policy names the balance strategy applied to an account. The only degree
// of freedom is whether investment-return events contribute back to the
// balance; for everyone but a small configured set of accounts they are
// tracked for history only.
type Policy struct {
	Name                     string
	IncludeInvestmentReturns bool
}

var (
	// DefaultPolicy excludes investment returns from the balance formula.
	DefaultPolicy = Policy{Name: "default"}
	// ReturnsCreditedPolicy credits returned principal back into the balance.
	ReturnsCreditedPolicy = Policy{Name: "returns-credited", IncludeInvestmentReturns: true}
)

// PolicyResolver selects the balance policy for an account. The
// returns-credited accounts come from configuration so the exception is
// visible at the call site instead of buried in a conditional.
type PolicyResolver struct {
	returnsCredited map[string]struct{}
}

func NewPolicyResolver(returnsCreditedAccounts []string) *PolicyResolver {
	set := make(map[string]struct{}, len(returnsCreditedAccounts))
	for _, id := range returnsCreditedAccounts {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &PolicyResolver{returnsCredited: set}
}

// PolicyFor returns the policy governing the given account.
func (r *PolicyResolver) PolicyFor(userID string) Policy {
	if _, ok := r.returnsCredited[userID]; ok {
		return ReturnsCreditedPolicy
	}
	return DefaultPolicy
}

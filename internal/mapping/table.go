package mapping

// Table is an immutable, ordered set of compiled field rules. Declaration
// order is preserved because it breaks ties during positional inference.
// Tables are built once and never mutated; concurrent readers share them
// freely.
type Table struct {
	rules   []*Rule
	byLabel map[string]*Rule   // canonical label+qualifier -> rule
	groups  map[string][]*Rule // canonical base label -> variant group
}

// NewTable compiles rule configs into a table. Two configs sharing the same
// (base label, qualifier) pair collide; the later one silently replaces the
// earlier, keeping the earlier one's position in declaration order.
func NewTable(configs []RuleConfig) (*Table, error) {
	t := &Table{
		byLabel: make(map[string]*Rule, len(configs)),
		groups:  make(map[string][]*Rule),
	}
	for _, rc := range configs {
		r, err := compileRule(rc)
		if err != nil {
			return nil, err
		}
		if prev, ok := t.byLabel[r.canonical]; ok {
			// Last write wins, in place. Two rules can share a canonical
			// form with different base labels ("a (max)"/no qualifier vs
			// "a"/max), so the variant group index moves with the rule.
			oldBase := prev.canonicalBase
			*prev = *r
			if oldBase != prev.canonicalBase {
				group := t.groups[oldBase]
				for i, g := range group {
					if g == prev {
						t.groups[oldBase] = append(group[:i], group[i+1:]...)
						break
					}
				}
				if len(t.groups[oldBase]) == 0 {
					delete(t.groups, oldBase)
				}
				t.groups[prev.canonicalBase] = append(t.groups[prev.canonicalBase], prev)
			}
			continue
		}
		t.byLabel[r.canonical] = r
		t.rules = append(t.rules, r)
		t.groups[r.canonicalBase] = append(t.groups[r.canonicalBase], r)
	}
	return t, nil
}

// Rules returns the rules in declaration order. Callers must not modify the
// returned slice.
func (t *Table) Rules() []*Rule { return t.rules }

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// LookupLabel returns the rule whose canonical label form equals key.
func (t *Table) LookupLabel(key string) (*Rule, bool) {
	r, ok := t.byLabel[key]
	return r, ok
}

// VariantGroup returns the rules sharing the given canonical base label,
// in declaration order.
func (t *Table) VariantGroup(canonicalBase string) []*Rule {
	return t.groups[canonicalBase]
}

// RulesWithQualifier returns the rules carrying the given qualifier, in
// declaration order.
func (t *Table) RulesWithQualifier(q Qualifier) []*Rule {
	var out []*Rule
	for _, r := range t.rules {
		if r.Qualifier == q {
			out = append(out, r)
		}
	}
	return out
}

// FieldKeys returns every configured field key in declaration order.
func (t *Table) FieldKeys() []string {
	keys := make([]string, len(t.rules))
	for i, r := range t.rules {
		keys[i] = r.FieldKey
	}
	return keys
}

package project

// Some stylesheets spell paragraph style ids with Cyrillic letters that look like
// their Latin counterparts. They are mapped back so the body prefixes match.
var latinStyles = map[string]string{
	"р":  "p",
	"ѕ":  "s",
	"ѕ1": "s1",
	"ѕ2": "s2",
	"ԛ":  "q",
	"ԛ1": "q1",
	"ԛ2": "q2",
	"ір": "ip",
	"м":  "m",
}

func latinStyle(id string) string {
	if v, ok := latinStyles[id]; ok {
		return v
	}
	return id
}

// latinize returns a new set with every id passed through latinStyles.
// Ids that collide after mapping collapse into one member.
func latinize(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for id := range ids {
		out[latinStyle(id)] = struct{}{}
	}
	return out
}

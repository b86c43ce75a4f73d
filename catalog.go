package httpfile

// project converts a fully validated request list into
// an ordered Catalog, indexed by name in file order. Callers only ever
// reach this with requests that carry no fatal diagnostic (see Parse).
func project(requests []Request) *Catalog {
	cases := make([]TestCase, 0, len(requests))
	index := make(map[string]int, len(requests))

	for _, r := range requests {
		index[r.Name] = len(cases)
		cases = append(cases, TestCase{
			Name:             r.Name,
			Request:          r,
			ExpectedResponse: r.ExpectedResponse,
		})
	}

	return &Catalog{Cases: cases, index: index}
}

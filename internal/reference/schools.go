package reference

// SchoolMapping places a school in the zone tier of the hierarchy. Zones sit
// between schools and sub-counties and exist only in this mapping; projects
// and users reference schools directly.
type SchoolMapping struct {
	School    string
	Zone      string
	SubCounty string
	County    string
	Region    string
}

var SchoolMappings = []SchoolMapping{
	// Coast
	{School: "Mombasa High", Zone: "Mvita Zone", SubCounty: "Mvita", County: "Mombasa", Region: "Coast"},
	{School: "Kisauni Secondary School", Zone: "Kisauni North Zone", SubCounty: "Kisauni", County: "Mombasa", Region: "Coast"},
	{School: "Frere Town Secondary", Zone: "Kisauni North Zone", SubCounty: "Kisauni", County: "Mombasa", Region: "Coast"},
	{School: "Watamu Secondary", Zone: "Malindi East Zone", SubCounty: "Malindi", County: "Kilifi", Region: "Coast"},

	// Central
	{School: "Alliance High School", Zone: "Kikuyu Central Zone", SubCounty: "Kikuyu", County: "Kiambu", Region: "Central"},

	// Nyanza
	{School: "Maseno School", Zone: "Kisumu West Central", SubCounty: "Kisumu West", County: "Kisumu", Region: "Nyanza"},

	// Rift Valley
	{School: "Kapsabet High School", Zone: "Emgwen Central Zone", SubCounty: "Emgwen", County: "Nandi", Region: "Rift Valley"},

	// Nairobi
	{School: "Pangani Girls High School", Zone: "Starehe Central Zone", SubCounty: "Starehe", County: "Nairobi City", Region: "Nairobi"},
	{School: "Kenya High School", Zone: "Langata South Zone", SubCounty: "Lang'ata", County: "Nairobi City", Region: "Nairobi"},
}

// FindSchoolMapping looks up the hierarchy placement of a school.
func FindSchoolMapping(school string) (SchoolMapping, bool) {
	for _, mapping := range SchoolMappings {
		if mapping.School == school {
			return mapping, true
		}
	}
	return SchoolMapping{}, false
}

// ZoneNames lists every known zone.
func ZoneNames() []string {
	seen := make(map[string]struct{}, len(SchoolMappings))
	var names []string
	for _, mapping := range SchoolMappings {
		if _, ok := seen[mapping.Zone]; ok {
			continue
		}
		seen[mapping.Zone] = struct{}{}
		names = append(names, mapping.Zone)
	}
	return names
}

// SchoolNames lists every mapped school.
func SchoolNames() []string {
	names := make([]string, 0, len(SchoolMappings))
	for _, mapping := range SchoolMappings {
		names = append(names, mapping.School)
	}
	return names
}

// MappingsWhere filters school mappings by the given predicate.
func MappingsWhere(keep func(SchoolMapping) bool) []SchoolMapping {
	var out []SchoolMapping
	for _, mapping := range SchoolMappings {
		if keep(mapping) {
			out = append(out, mapping)
		}
	}
	return out
}

// Package reference holds the static competition reference data: the
// geographic hierarchy, school-to-zone mappings, project categories and
// scorecard criteria. It is read-only and consulted by eligibility,
// validation and ranking.
package reference

// County groups the sub-counties under one county.
type County struct {
	Name        string
	SubCounties []string
}

// Region groups the counties under one region.
type Region struct {
	Name     string
	Counties []County
}

// Geography is the region → county → sub-county tree used for scope
// validation and leaderboard rollups.
var Geography = []Region{
	{
		Name: "Central",
		Counties: []County{
			{Name: "Kiambu", SubCounties: []string{"Gatundu North", "Gatundu South", "Githunguri", "Juja", "Kabete", "Kiambaa", "Kiambu Town", "Kikuyu", "Limuru", "Lari", "Ruiru", "Thika Town"}},
			{Name: "Kirinyaga", SubCounties: []string{"Gichugu", "Mwea East", "Mwea West", "Kirinyaga Central", "Ndia"}},
			{Name: "Murang'a", SubCounties: []string{"Kangema", "Mathioya", "Kiharu", "Kigumo", "Maragua", "Kandara", "Gatanga"}},
			{Name: "Nyandarua", SubCounties: []string{"Kinangop", "Kipipiri", "Ndaragwa", "Ol Kalou", "Ol Jorok"}},
			{Name: "Nyeri", SubCounties: []string{"Kieni East", "Kieni West", "Mathira East", "Mathira West", "Mukureini", "Nyeri Central", "Tetu", "Othaya"}},
		},
	},
	{
		Name: "Coast",
		Counties: []County{
			{Name: "Mombasa", SubCounties: []string{"Changamwe", "Jomvu", "Kisauni", "Nyali", "Likoni", "Mvita"}},
			{Name: "Kwale", SubCounties: []string{"Kinango", "Lungalunga", "Matuga", "Msambweni"}},
			{Name: "Kilifi", SubCounties: []string{"Kilifi North", "Kilifi South", "Kaloleni", "Rabai", "Malindi", "Magarini"}},
			{Name: "Tana River", SubCounties: []string{"Bura", "Galole", "Garsen"}},
			{Name: "Lamu", SubCounties: []string{"Lamu East", "Lamu West"}},
			{Name: "Taita-Taveta", SubCounties: []string{"Taveta", "Voi", "Mwatate", "Wundanyi"}},
		},
	},
	{
		Name: "Eastern",
		Counties: []County{
			{Name: "Embu", SubCounties: []string{"Manyatta", "Runyenjes", "Mbeere North", "Mbeere South"}},
			{Name: "Kitui", SubCounties: []string{"Kitui Central", "Kitui East", "Kitui Rural", "Kitui South", "Kitui West", "Mwingi Central", "Mwingi North", "Mwingi West"}},
			{Name: "Machakos", SubCounties: []string{"Kangundo", "Kathiani", "Machakos Town", "Masinga", "Matungulu", "Mavoko", "Mwala", "Yatta"}},
			{Name: "Makueni", SubCounties: []string{"Kaiti", "Kibwezi East", "Kibwezi West", "Kilome", "Makueni", "Mbooni"}},
			{Name: "Meru", SubCounties: []string{"Buuri East", "Buuri West", "Igembe Central", "Igembe North", "Igembe South", "Imenti Central", "Imenti North", "Imenti South", "Tigania East", "Tigania West"}},
			{Name: "Tharaka-Nithi", SubCounties: []string{"Maara", "Meru South (Chuka)", "Tharaka"}},
			{Name: "Isiolo", SubCounties: []string{"Isiolo"}},
			{Name: "Marsabit", SubCounties: []string{"Laisamis", "Moyale", "North Horr", "Saku"}},
		},
	},
	{
		Name: "Nairobi",
		Counties: []County{
			{Name: "Nairobi City", SubCounties: []string{"Dagoretti North", "Dagoretti South", "Embakasi Central", "Embakasi East", "Embakasi North", "Embakasi South", "Embakasi West", "Kamukunji", "Kasarani", "Kibra", "Lang'ata", "Makadara", "Mathare", "Roysambu", "Ruaraka", "Starehe", "Westlands"}},
		},
	},
	{
		Name: "North Eastern",
		Counties: []County{
			{Name: "Garissa", SubCounties: []string{"Balambala", "Dadaab", "Fafi", "Garissa Township", "Ijara", "Lagdera"}},
			{Name: "Wajir", SubCounties: []string{"Eldas", "Tarbaj", "Wajir East", "Wajir North", "Wajir South", "Wajir West"}},
			{Name: "Mandera", SubCounties: []string{"Banissa", "Lafey", "Mandera East", "Mandera North", "Mandera South", "Mandera West"}},
		},
	},
	{
		Name: "Nyanza",
		Counties: []County{
			{Name: "Kisumu", SubCounties: []string{"Kisumu Central", "Kisumu East", "Kisumu West", "Muhoroni", "Nyakach", "Nyando", "Seme"}},
			{Name: "Siaya", SubCounties: []string{"Alego Usonga", "Bondo", "Gem", "Rarieda", "Ugenya", "Ugunja"}},
			{Name: "Homa Bay", SubCounties: []string{"Homa Bay Town", "Kabondo Kasipul", "Karachuonyo", "Kasipul", "Mbita", "Ndhiwa", "Rangwe", "Suba"}},
			{Name: "Migori", SubCounties: []string{"Awendo", "Kuria East", "Kuria West", "Rongo", "Suna East", "Suna West", "Uriri"}},
			{Name: "Kisii", SubCounties: []string{"Bobasi", "Bomachoge Borabu", "Bomachoge Chache", "Bonchari", "Kitutu Chache North", "Kitutu Chache South", "Nyaribari Chache", "Nyaribari Masaba", "South Mugirango"}},
			{Name: "Nyamira", SubCounties: []string{"Borabu", "Kitutu Masaba", "North Mugirango", "West Mugirango"}},
		},
	},
	{
		Name: "Rift Valley",
		Counties: []County{
			{Name: "Turkana", SubCounties: []string{"Turkana Central", "Turkana East", "Turkana North", "Turkana South", "Turkana West", "Loima"}},
			{Name: "West Pokot", SubCounties: []string{"Kapenguria", "Kacheliba", "Pokot South", "Sigor"}},
			{Name: "Samburu", SubCounties: []string{"Samburu East", "Samburu North", "Samburu West"}},
			{Name: "Trans-Nzoia", SubCounties: []string{"Cherangany", "Endebess", "Kiminini", "Kwanza", "Saboti"}},
			{Name: "Uasin Gishu", SubCounties: []string{"Ainabkoi", "Kapseret", "Kesses", "Moiben", "Soy", "Turbo"}},
			{Name: "Elgeyo-Marakwet", SubCounties: []string{"Keiyo North", "Keiyo South", "Marakwet East", "Marakwet West"}},
			{Name: "Nandi", SubCounties: []string{"Aldai", "Chesumei", "Emgwen", "Mosop", "Nandi Hills", "Tinderet"}},
			{Name: "Baringo", SubCounties: []string{"Baringo Central", "Baringo North", "Baringo South", "Eldama Ravine", "Mogotio", "Tiaty"}},
			{Name: "Laikipia", SubCounties: []string{"Laikipia East", "Laikipia North", "Laikipia West"}},
			{Name: "Nakuru", SubCounties: []string{"Bahati", "Gilgil", "Kuresoi North", "Kuresoi South", "Molo", "Naivasha", "Nakuru Town East", "Nakuru Town West", "Njoro", "Rongai", "Subukia"}},
			{Name: "Narok", SubCounties: []string{"Narok East", "Narok North", "Narok South", "Narok West", "Emurua Dikirr", "Kilgoris"}},
			{Name: "Kajiado", SubCounties: []string{"Kajiado Central", "Kajiado East", "Kajiado North", "Kajiado South", "Kajiado West"}},
			{Name: "Kericho", SubCounties: []string{"Ainamoi", "Belgut", "Bureti", "Kipkelion East", "Kipkelion West", "Sigowet-Soin"}},
			{Name: "Bomet", SubCounties: []string{"Bomet Central", "Bomet East", "Chepalungu", "Konoin", "Sotik"}},
		},
	},
	{
		Name: "Western",
		Counties: []County{
			{Name: "Kakamega", SubCounties: []string{"Butere", "Ikolomani", "Khwisero", "Lugari", "Lurambi", "Malava", "Matungu", "Mumias East", "Mumias West", "Navakholo", "Shinyalu"}},
			{Name: "Vihiga", SubCounties: []string{"Emuhaya", "Hamisi", "Luanda", "Sabatia", "Vihiga"}},
			{Name: "Bungoma", SubCounties: []string{"Bumula", "Kabuchai", "Kanduyi", "Kimilili", "Mt. Elgon", "Sirisia", "Tongaren", "Webuye East", "Webuye West"}},
			{Name: "Busia", SubCounties: []string{"Budalangi", "Butula", "Funyula", "Matayos", "Nambale", "Teso North", "Teso South"}},
		},
	},
}

// RegionNames lists every region.
func RegionNames() []string {
	names := make([]string, 0, len(Geography))
	for _, region := range Geography {
		names = append(names, region.Name)
	}
	return names
}

// CountyNames lists every county across all regions.
func CountyNames() []string {
	var names []string
	for _, region := range Geography {
		for _, county := range region.Counties {
			names = append(names, county.Name)
		}
	}
	return names
}

// SubCountyNames lists every sub-county across all counties.
func SubCountyNames() []string {
	var names []string
	for _, region := range Geography {
		for _, county := range region.Counties {
			names = append(names, county.SubCounties...)
		}
	}
	return names
}

// FindRegion returns the region by name.
func FindRegion(name string) (Region, bool) {
	for _, region := range Geography {
		if region.Name == name {
			return region, true
		}
	}
	return Region{}, false
}

// CountiesOf returns the county names within a region.
func CountiesOf(regionName string) []string {
	region, ok := FindRegion(regionName)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(region.Counties))
	for _, county := range region.Counties {
		names = append(names, county.Name)
	}
	return names
}

// SubCountiesOf returns the sub-county names within a county.
func SubCountiesOf(countyName string) []string {
	for _, region := range Geography {
		for _, county := range region.Counties {
			if county.Name == countyName {
				return county.SubCounties
			}
		}
	}
	return nil
}

// ValidLocation reports whether the region/county/sub-county triple exists
// in the hierarchy.
func ValidLocation(regionName, countyName, subCountyName string) bool {
	region, ok := FindRegion(regionName)
	if !ok {
		return false
	}
	for _, county := range region.Counties {
		if county.Name != countyName {
			continue
		}
		if subCountyName == "" {
			return true
		}
		for _, sc := range county.SubCounties {
			if sc == subCountyName {
				return true
			}
		}
	}
	return false
}

package gateway

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// earthRadiusKm is the great-circle radius used for gateway distance. It
// doubles as the penalty distance for gateways that have never reported a
// location: maximally far, but still selectable as a last resort.
const earthRadiusKm = 6371.0

// SelectGateway picks one gateway for a client.
//
// Preferred IDs narrow the candidate set when the intersection is non-empty;
// an unsatisfiable preference falls back to the full set rather than
// hard-failing. Without a client location the pick is uniform. With one,
// gateways sharing identical coordinates are grouped so co-located gateways
// count as a single location (they cannot supply independent ICE
// candidates), the nearest group wins, and within it only gateways running
// the highest reported version stay eligible before the final uniform pick.
func SelectGateway(clientGeo *Location, gateways []*Gateway, preferredIDs []string) *Gateway {
	if len(gateways) == 0 {
		return nil
	}

	candidates := gateways
	if len(preferredIDs) > 0 {
		preferred := make(map[string]bool, len(preferredIDs))
		for _, sid := range preferredIDs {
			preferred[sid] = true
		}
		var narrowed []*Gateway
		for _, g := range candidates {
			if preferred[g.SID()] {
				narrowed = append(narrowed, g)
			}
		}
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	if clientGeo == nil {
		return candidates[rand.Intn(len(candidates))]
	}

	groups := make(map[string][]*Gateway)
	distances := make(map[string]float64)
	for _, g := range candidates {
		loc := g.LastSeenLocation()
		var key string
		var dist float64
		if loc == nil {
			key = "unlocated"
			dist = earthRadiusKm
		} else {
			key = fmt.Sprintf("%.6f,%.6f", loc.Lat, loc.Lon)
			dist = haversineKm(clientGeo.Lat, clientGeo.Lon, loc.Lat, loc.Lon)
		}
		groups[key] = append(groups[key], g)
		distances[key] = dist
	}

	var nearestKey string
	nearest := math.MaxFloat64
	for key, dist := range distances {
		if dist < nearest || (dist == nearest && key < nearestKey) {
			nearest = dist
			nearestKey = key
		}
	}

	winners := highestVersion(groups[nearestKey])
	return winners[rand.Intn(len(winners))]
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180.0
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// highestVersion filters gateways to the subset running the highest reported
// version, so version-incompatible gateways never share a candidate pool.
func highestVersion(gateways []*Gateway) []*Gateway {
	if len(gateways) <= 1 {
		return gateways
	}
	best := gateways[0].LastSeenVersion()
	for _, g := range gateways[1:] {
		if CompareVersions(g.LastSeenVersion(), best) > 0 {
			best = g.LastSeenVersion()
		}
	}
	var winners []*Gateway
	for _, g := range gateways {
		if CompareVersions(g.LastSeenVersion(), best) == 0 {
			winners = append(winners, g)
		}
	}
	return winners
}

// CompareVersions orders dotted version strings numerically per segment,
// ignoring a leading "v". Non-numeric segments fall back to string order.
// Missing segments compare as zero, so "1.3" equals "1.3.0".
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		sa, sb := "0", "0"
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		default:
			if sa != sb {
				if sa < sb {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}

package mapmodel

import (
	"fmt"
	"sort"
	"strings"

	"evalgo.org/fleetmap/internal/fleeterr"
)

// instanceNames returns the daemon-facing instance identifiers for a
// container: one per declared instance, or the bare config name if it
// has none.
func instanceNames(configName string, assignment *ContainerAssignment) []string {
	if len(assignment.Instances) == 0 {
		return []string{configName}
	}
	names := make([]string, len(assignment.Instances))
	for i, inst := range assignment.Instances {
		names[i] = configName + "." + inst
	}
	return names
}

// CheckIntegrity enforces the invariants every later stage (resolver,
// state generator, policy) assumes hold:
//
//  1. Across the map, each shared or attached name is unique.
//  2. Every `uses` reference resolves to a declared container instance
//     or an attached alias in the same map.
//  3. Every `binds` volume alias appears in Host.
//  4. Every alias in `attaches`/`binds` appears in Volumes.
//  5. Every `links` target resolves to a declared container instance.
//
// checkDuplicates controls whether rule 1 is enforced; it can be
// disabled when merging extended maps where duplicate attachment names
// are expected to be reconciled later.
func (m *ContainerMap) CheckIntegrity(checkDuplicates bool) error {
	var allInstances, allUsed, allAttached, allBinds, allLinks []string
	nameCounts := make(map[string]int)

	for _, name := range m.Names() {
		assignment := m.Containers[name]
		instances := instanceNames(name, assignment)
		allInstances = append(allInstances, instances...)

		if len(assignment.Shares) > 0 || len(assignment.Binds) > 0 {
			for _, n := range instances {
				nameCounts[n]++
			}
		}
		for _, a := range assignment.Attaches {
			allAttached = append(allAttached, a)
			nameCounts[a]++
		}
		for _, u := range assignment.Uses {
			allUsed = append(allUsed, u.Ref)
		}
		for _, b := range assignment.Binds {
			if !b.IsInline() {
				allBinds = append(allBinds, b.VolumeAlias)
			}
		}
		for _, l := range assignment.Links {
			allLinks = append(allLinks, l.ContainerRef)
		}
	}

	if checkDuplicates {
		var duplicated []string
		for name, count := range nameCounts {
			if count > 1 {
				duplicated = append(duplicated, name)
			}
		}
		if len(duplicated) > 0 {
			sort.Strings(duplicated)
			return fleeterr.NewIntegrityError(fmt.Sprintf(
				"duplicated shared or attached volumes found with name(s): %s", strings.Join(duplicated, ", ")))
		}
	}

	usableSet := toSet(allInstances, allAttached)
	if missing := setDiff(toSet(allUsed), usableSet); len(missing) > 0 {
		return fleeterr.NewIntegrityError(fmt.Sprintf(
			"no shared or attached volumes found for used volume(s): %s", strings.Join(missing, ", ")))
	}

	hostSet := make(map[string]struct{}, len(m.Host))
	for alias := range m.Host {
		hostSet[alias] = struct{}{}
	}
	if missing := setDiff(toSet(allBinds), hostSet); len(missing) > 0 {
		return fleeterr.NewIntegrityError(fmt.Sprintf(
			"no host share found for mapped volume(s): %s", strings.Join(missing, ", ")))
	}

	volumeSet := toSet(allBinds, allAttached)
	namedSet := make(map[string]struct{}, len(m.Volumes))
	for alias := range m.Volumes {
		namedSet[alias] = struct{}{}
	}
	if missing := setDiff(volumeSet, namedSet); len(missing) > 0 {
		return fleeterr.NewIntegrityError(fmt.Sprintf(
			"no volume name-path-assignments found for volume(s): %s", strings.Join(missing, ", ")))
	}

	instanceSet := toSet(allInstances)
	if missing := setDiff(toSet(allLinks), instanceSet); len(missing) > 0 {
		return fleeterr.NewIntegrityError(fmt.Sprintf(
			"no container instance found for link(s): %s", strings.Join(missing, ", ")))
	}

	return nil
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			set[s] = struct{}{}
		}
	}
	return set
}

// setDiff returns a - b, sorted for deterministic error messages.
func setDiff(a, b map[string]struct{}) []string {
	var diff []string
	for s := range a {
		if _, ok := b[s]; !ok {
			diff = append(diff, s)
		}
	}
	sort.Strings(diff)
	return diff
}

// ExpandInstances expands a bare MapConfigId (no InstanceName, for a
// container with declared instances) into one id per instance. A
// non-instanced container, or an id that already names an instance,
// passes through unchanged.
func ExpandInstances(id MapConfigId, m *ContainerMap) []MapConfigId {
	if id.InstanceName != "" || id.ConfigType != ContainerType {
		return []MapConfigId{id}
	}
	assignment := m.GetExisting(id.ConfigName)
	if assignment == nil || len(assignment.Instances) == 0 {
		return []MapConfigId{id}
	}
	out := make([]MapConfigId, len(assignment.Instances))
	for i, inst := range assignment.Instances {
		out[i] = MapConfigId{
			ConfigType:   id.ConfigType,
			MapName:      id.MapName,
			ConfigName:   id.ConfigName,
			InstanceName: inst,
		}
	}
	return out
}

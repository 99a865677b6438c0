/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package service

import (
	"fmt"
	"sort"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/normalizer"
)

// keyedPartition collects leads under string keys, remembering the order in which keys first appear
// so that groups come out in a stable, oldest-first order.
type keyedPartition struct {
	order   []string
	members map[string][]leadModel.Lead
	seen    map[string]map[string]bool
}

func newKeyedPartition() *keyedPartition {
	return &keyedPartition{
		members: make(map[string][]leadModel.Lead),
		seen:    make(map[string]map[string]bool),
	}
}

func (p *keyedPartition) add(key string, lead leadModel.Lead) {
	if _, ok := p.members[key]; !ok {
		p.order = append(p.order, key)
		p.seen[key] = make(map[string]bool)
	}
	if p.seen[key][lead.LeadId] {
		return
	}
	p.seen[key][lead.LeadId] = true
	p.members[key] = append(p.members[key], lead)
}

// groups emits every key holding two or more distinct leads.
func (p *keyedPartition) groups(matchType model.MatchType) []model.DuplicateGroup {
	var out []model.DuplicateGroup
	for _, key := range p.order {
		if members := p.members[key]; len(members) >= 2 {
			out = append(out, newGroup(matchType, key, members))
		}
	}
	return out
}

// newGroup sorts members oldest first and makes the oldest the primary.
func newGroup(matchType model.MatchType, key string, members []leadModel.Lead) model.DuplicateGroup {
	leads := append([]leadModel.Lead(nil), members...)
	sortOldestFirst(leads)
	return model.DuplicateGroup{
		Id:            fmt.Sprintf("%s:%s", matchType, key),
		MatchType:     matchType,
		Confidence:    matchType.Confidence(),
		Leads:         leads,
		PrimaryLeadId: leads[0].LeadId,
	}
}

func sortOldestFirst(leads []leadModel.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].LeadId < leads[j].LeadId
		}
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
}

// exactEmailGroups partitions by folded, trimmed email. Blank emails never match.
func exactEmailGroups(leads []leadModel.Lead) []model.DuplicateGroup {
	p := newKeyedPartition()
	for _, l := range leads {
		if email := normalizer.NormalizeEmail(l.Email); email != "" {
			p.add(email, l)
		}
	}
	return p.groups(model.ExactEmail)
}

// exactPhoneGroups partitions by normalized phone. Keys shorter than MinPhoneKeyLength are noise.
func exactPhoneGroups(leads []leadModel.Lead) []model.DuplicateGroup {
	p := newKeyedPartition()
	for _, l := range leads {
		if phone := normalizer.NormalizePhone(l.Phone); len(phone) >= normalizer.MinPhoneKeyLength {
			p.add(phone, l)
		}
	}
	return p.groups(model.ExactPhone)
}

// nameProgramGroups keys every lead by "full name|program" for each program it is interested in,
// so one lead can land in several groups.
func nameProgramGroups(leads []leadModel.Lead) []model.DuplicateGroup {
	p := newKeyedPartition()
	for _, l := range leads {
		name := normalizer.FullName(l.FirstName, l.LastName)
		if name == "" {
			continue
		}
		for _, program := range l.ProgramInterest {
			if program = normalizer.NormalizeName(program); program != "" {
				p.add(name+"|"+program, l)
			}
		}
	}
	return p.groups(model.NameProgram)
}

func similarNameGroups(clusters [][]leadModel.Lead) []model.DuplicateGroup {
	out := make([]model.DuplicateGroup, 0, len(clusters))
	for _, cluster := range clusters {
		out = append(out, newGroup(model.SimilarName, normalizer.FullName(cluster[0].FirstName, cluster[0].LastName), cluster))
	}
	return out
}

// withoutGrouped returns the leads not present in any of the groups, preserving order.
func withoutGrouped(leads []leadModel.Lead, groups []model.DuplicateGroup) []leadModel.Lead {
	if len(groups) == 0 {
		return leads
	}
	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, l := range g.Leads {
			grouped[l.LeadId] = true
		}
	}
	remaining := make([]leadModel.Lead, 0, len(leads))
	for _, l := range leads {
		if !grouped[l.LeadId] {
			remaining = append(remaining, l)
		}
	}
	return remaining
}

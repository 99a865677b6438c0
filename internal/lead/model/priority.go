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

package model

import "strings"

// Priority is the follow-up urgency of a lead.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var prioritySeverity = map[Priority]int{
	PriorityUrgent: 4,
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Severity ranks the priority, urgent highest. Unknown or blank priorities rank 0.
func (p Priority) Severity() int {
	return prioritySeverity[Priority(strings.ToLower(strings.TrimSpace(string(p))))]
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	return p.Severity() > 0
}

// MostUrgent returns the most urgent of the given priorities. Ties keep the earliest.
func MostUrgent(priorities ...Priority) Priority {
	var best Priority
	for _, p := range priorities {
		if p.Severity() > best.Severity() {
			best = p
		}
	}
	return best
}

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
	"context"
	"fmt"
	"testing"
	"time"

	configModel "github.com/wso2/lead-deduplication-service/internal/duplicate_config/model"
	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/lead/store"
)

var benchFirstNames = []string{"John", "Jon", "Maria", "Mariah", "Ahmed", "Priya", "Chen", "Sofia"}
var benchLastNames = []string{"Smith", "Smyth", "Garcia", "Khan", "Patel", "Wang", "Rossi", "Silva"}

// setupBenchmarkLeads seeds n leads where roughly one in five shares an email and one in
// seven shares a phone with an earlier lead.
func setupBenchmarkLeads(b *testing.B, n int) []leadModel.Lead {
	b.Helper()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	leads := make([]leadModel.Lead, 0, n)
	for i := 0; i < n; i++ {
		lead := leadModel.Lead{
			LeadId:          fmt.Sprintf("lead-%06d", i),
			TenantId:        tenant,
			Email:           fmt.Sprintf("lead%d@example.com", i),
			Phone:           fmt.Sprintf("+1 555 %07d", i),
			FirstName:       benchFirstNames[i%len(benchFirstNames)],
			LastName:        benchLastNames[(i/len(benchFirstNames))%len(benchLastNames)],
			ProgramInterest: []string{fmt.Sprintf("program-%d", i%4)},
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if i%5 == 4 {
			lead.Email = fmt.Sprintf("LEAD%d@Example.com", i-1)
		}
		if i%7 == 6 {
			lead.Phone = fmt.Sprintf("(555) %07d", i-2)
		}
		leads = append(leads, lead)
	}
	return leads
}

func newBenchmarkScanner(b *testing.B, n int) *DuplicateScanService {
	b.Helper()

	s := store.NewMemoryLeadStore()
	for _, lead := range setupBenchmarkLeads(b, n) {
		if _, err := s.InsertOrUpdate(context.Background(), lead); err != nil {
			b.Fatalf("Failed to seed lead: %v", err)
		}
	}
	return NewDuplicateScanService(s, fixedPolicy(configModel.PreventionBoth), nil, defaultSettings, nil)
}

// Benchmark_ScanAll benchmarks the four-pass scan over tenants of increasing size
func Benchmark_ScanAll(b *testing.B) {
	for _, n := range []int{100, 500, 2000} {
		b.Run(fmt.Sprintf("leads-%d", n), func(b *testing.B) {
			svc := newBenchmarkScanner(b, n)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := svc.ScanAll(context.Background(), tenant, model.ScanOptions{}); err != nil {
					b.Fatalf("Failed to scan: %v", err)
				}
			}
		})
	}
}

// Benchmark_ScanExact benchmarks the policy-driven exact scan
func Benchmark_ScanExact(b *testing.B) {
	svc := newBenchmarkScanner(b, 2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.ScanExact(context.Background(), tenant, model.ScanOptions{}); err != nil {
			b.Fatalf("Failed to scan: %v", err)
		}
	}
}

// Benchmark_GreedyNameClusterer benchmarks the pairwise similar-name pass on its own
func Benchmark_GreedyNameClusterer(b *testing.B) {
	leads := setupBenchmarkLeads(b, 1000)
	clusterer := GreedyNameClusterer{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := clusterer.Cluster(context.Background(), leads, defaultSettings.SimilarNameThreshold); err != nil {
			b.Fatalf("Failed to cluster: %v", err)
		}
	}
}

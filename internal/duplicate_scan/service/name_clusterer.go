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

	leadModel "github.com/wso2/lead-deduplication-service/internal/lead/model"
	"github.com/wso2/lead-deduplication-service/internal/normalizer"
)

// NameClusterer groups leads whose full names are similar. Implementations must return clusters of
// two or more leads, each lead in at most one cluster, and must honour ctx cancellation.
type NameClusterer interface {
	Cluster(ctx context.Context, leads []leadModel.Lead, threshold float64) ([][]leadModel.Lead, error)
}

// GreedyNameClusterer makes a single pass in lead order. Each unclustered lead is compared with every
// later unclustered lead and absorbs all that reach the threshold. This is O(n^2) comparisons over the
// leads left after the exact passes.
type GreedyNameClusterer struct{}

func (GreedyNameClusterer) Cluster(ctx context.Context, leads []leadModel.Lead,
	threshold float64) ([][]leadModel.Lead, error) {

	names := make([]string, len(leads))
	for i, l := range leads {
		names[i] = normalizer.FullName(l.FirstName, l.LastName)
	}

	processed := make([]bool, len(leads))
	var clusters [][]leadModel.Lead
	for i := range leads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if processed[i] || names[i] == "" {
			continue
		}

		cluster := []leadModel.Lead{leads[i]}
		for j := i + 1; j < len(leads); j++ {
			if processed[j] || names[j] == "" {
				continue
			}
			if normalizer.NameSimilarity(names[i], names[j]) >= threshold {
				cluster = append(cluster, leads[j])
				processed[j] = true
			}
		}
		if len(cluster) >= 2 {
			processed[i] = true
			clusters = append(clusters, cluster)
		}
	}
	return clusters, nil
}

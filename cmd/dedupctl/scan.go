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

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
)

var (
	scanScope    string
	scanFailOpen bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List duplicate lead groups",
	Long: `Scans the tenant's leads for duplicate groups.

Examples:
  # Every strategy: exact email, exact phone, similar name, name + program
  dedupctl scan -t acme

  # Only the passes selected by the tenant's prevention policy
  dedupctl scan -t acme --scope exact --json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanScope, "scope", constants.ScanScopeAll, "all or exact")
	scanCmd.Flags().BoolVar(&scanFailOpen, "fail-open", false, "report no groups instead of failing when the store errors")
	rootCmd.AddCommand(scanCmd)
}

func scan(cmd *cobra.Command) (model.ScanResult, error) {
	opts := model.ScanOptions{}
	if cmd.Flags().Changed("fail-open") {
		opts.FailOpen = &scanFailOpen
	}
	switch scanScope {
	case constants.ScanScopeAll:
		return engine.ScanService.ScanAll(cmd.Context(), tenantId, opts)
	case constants.ScanScopeExact:
		return engine.ScanService.ScanExact(cmd.Context(), tenantId, opts)
	}
	return model.ScanResult{}, fmt.Errorf("invalid scope %q: use %s or %s", scanScope,
		constants.ScanScopeAll, constants.ScanScopeExact)
}

func runScan(cmd *cobra.Command, _ []string) error {
	result, err := scan(cmd)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, result)
	}

	if result.Degraded {
		cmd.Println(color.YellowString("! scan degraded, results may be incomplete"))
	}
	if len(result.Groups) == 0 {
		cmd.Printf("%s No duplicate groups among %d leads\n", color.GreenString("✓"), result.LeadsScanned)
		return nil
	}
	cmd.Printf("Found %d duplicate groups among %d leads:\n\n", len(result.Groups), result.LeadsScanned)
	for _, g := range result.Groups {
		cmd.Printf("%s  %s (%d%%)\n", color.CyanString(g.Id), g.MatchType, g.Confidence)
		for _, l := range g.Leads {
			marker := " "
			if l.LeadId == g.PrimaryLeadId {
				marker = "*"
			}
			cmd.Printf("  %s %s  %s  %s  %s\n", marker, l.LeadId, l.FullName(), l.Email, l.Phone)
		}
	}
	counts := result.CountByMatchType()
	parts := make([]string, 0, len(counts))
	for _, mt := range model.MatchTypes {
		if n := counts[string(mt)]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", mt, n))
		}
	}
	cmd.Printf("\n%s\n", strings.Join(parts, " "))
	return nil
}

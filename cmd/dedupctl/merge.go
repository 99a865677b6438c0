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

	scanModel "github.com/wso2/lead-deduplication-service/internal/duplicate_scan/model"
	"github.com/wso2/lead-deduplication-service/internal/merge/model"
)

var mergeTwoCmd = &cobra.Command{
	Use:   "merge-two <primary-lead-id> <secondary-lead-id>",
	Short: "Merge one lead into another",
	Long: `Merges the secondary lead into the primary. Blank contact and location fields are
filled from the secondary, programs and tags are unioned, the higher score is kept, and the
secondary's documents move to the primary before the secondary is deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: runMergeTwo,
}

var (
	bulkMatchTypes []string
	bulkDryRun     bool
)

var bulkMergeCmd = &cobra.Command{
	Use:   "bulk-merge",
	Short: "Scan and merge every duplicate group",
	Long: `Runs a full scan and merges the groups found, using the tenant's resolution policy.
Each group is merged into its oldest lead. A failing group does not stop the others.

Examples:
  # Preview what exact email and phone merges would produce
  dedupctl bulk-merge -t acme --match-type exact_email,exact_phone --dry-run

  # Merge everything the scan finds
  dedupctl bulk-merge -t acme`,
	Args: cobra.NoArgs,
	RunE: runBulkMerge,
}

func init() {
	bulkMergeCmd.Flags().StringSliceVar(&bulkMatchTypes, "match-type", nil,
		"only merge groups of these match types (exact_email, exact_phone, similar_name, name_program)")
	bulkMergeCmd.Flags().BoolVar(&bulkDryRun, "dry-run", false, "show the merged leads without writing")
	rootCmd.AddCommand(mergeTwoCmd)
	rootCmd.AddCommand(bulkMergeCmd)
}

func runMergeTwo(cmd *cobra.Command, args []string) error {
	result, err := engine.MergeService.MergeTwo(cmd.Context(), tenantId, args[0], args[1])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, result)
	}
	cmd.Printf("%s Merged %s into %s (%d documents moved)\n", color.GreenString("✓"),
		strings.Join(result.MergedLeadIds, ", "), result.PrimaryLead.LeadId, result.DocumentsReassigned)
	return nil
}

// selectGroups keeps the groups whose match type is listed. No filter keeps everything.
func selectGroups(groups []scanModel.DuplicateGroup, matchTypes []string) ([]model.GroupSpec, error) {
	wanted := make(map[scanModel.MatchType]bool, len(matchTypes))
	for _, mt := range matchTypes {
		matchType := scanModel.MatchType(strings.TrimSpace(mt))
		if !matchType.IsValid() {
			return nil, fmt.Errorf("unknown match type %q", mt)
		}
		wanted[matchType] = true
	}
	var specs []model.GroupSpec
	for _, g := range groups {
		if len(wanted) == 0 || wanted[g.MatchType] {
			specs = append(specs, model.FromDuplicateGroup(g))
		}
	}
	return specs, nil
}

func runBulkMerge(cmd *cobra.Command, _ []string) error {
	result, err := engine.ScanService.ScanAll(cmd.Context(), tenantId, scanModel.ScanOptions{})
	if err != nil {
		return err
	}
	groups, err := selectGroups(result.Groups, bulkMatchTypes)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		cmd.Printf("%s Nothing to merge\n", color.GreenString("✓"))
		return nil
	}

	if bulkDryRun {
		previews := make([]model.MergeResult, 0, len(groups))
		for _, g := range groups {
			preview, err := engine.MergeService.PreviewGroup(cmd.Context(), tenantId, g, nil)
			if err != nil {
				return fmt.Errorf("previewing group %s: %w", g.Id, err)
			}
			previews = append(previews, preview)
		}
		if jsonOutput {
			return printJSON(cmd, previews)
		}
		for _, p := range previews {
			cmd.Printf("%s  keep %s, remove %s\n", color.CyanString(p.GroupId), p.PrimaryLead.LeadId,
				strings.Join(p.MergedLeadIds, ", "))
		}
		cmd.Printf("\nDry run: %d groups would be merged\n", len(previews))
		return nil
	}

	bulk, err := engine.MergeService.BulkMergeGroups(cmd.Context(), tenantId, groups, nil)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, bulk)
	}
	for _, f := range bulk.Failures {
		cmd.Printf("%s %s: %s\n", color.RedString("✗"), f.GroupId, f.Error)
	}
	cmd.Printf("%s %d groups merged, %d failed\n", color.GreenString("✓"), bulk.SuccessCount, bulk.FailedCount)
	if bulk.FailedCount > 0 {
		return fmt.Errorf("%d of %d groups failed to merge", bulk.FailedCount, len(groups))
	}
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/senyabanana/equipment-rental/internal/models"
	"github.com/senyabanana/equipment-rental/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func quoteCmd() *cobra.Command {
	var (
		durationType string
		duration     int
		rate         string
		rateType     string
		transport    string
		category     string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the price breakdown for a rental",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", rate, err)
			}
			quote, err := pricing.Calculate(pricing.Input{
				DurationType:      models.DurationType(strings.ToUpper(durationType)),
				DurationValue:     duration,
				BaseRate:          baseRate,
				RateType:          models.RateType(strings.ToUpper(rateType)),
				Transport:         models.TransportOption(strings.ToUpper(transport)),
				EquipmentCategory: models.EquipmentCategory(strings.ToUpper(category)),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Duration:       %s (%d hours)\n", quote.DurationDisplay, quote.TotalHours)
			fmt.Fprintf(out, "Base cost:      %s\n", quote.BaseCost.StringFixed(2))
			fmt.Fprintf(out, "Transport fee:  %s\n", quote.TransportFee.StringFixed(2))
			fmt.Fprintf(out, "Total estimate: %s\n", quote.TotalEstimate.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&durationType, "duration-type", string(models.FullDay), "HALF_DAY, FULL_DAY, MULTI_DAY or WEEKLY")
	cmd.Flags().IntVar(&duration, "duration", 1, "number of duration units")
	cmd.Flags().StringVar(&rate, "rate", "", "base rate per rate unit")
	cmd.Flags().StringVar(&rateType, "rate-type", string(models.DailyRate), "HOURLY, HALF_DAY, DAILY or WEEKLY")
	cmd.Flags().StringVar(&transport, "transport", string(models.YouHandleIt), "WE_HANDLE_IT or YOU_HANDLE_IT")
	cmd.Flags().StringVar(&category, "category", string(models.SkidSteersTrackLoaders), "equipment category")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

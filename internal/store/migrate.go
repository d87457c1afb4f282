package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableCampaigns    = "campaigns"
	tableMissions     = "missions"
	tableDependencies = "mission_dependencies"
	tableStates       = "mission_states"
	tableCredits      = "reward_credits"
	tableEvents       = "progress_events"
	tableShopItems    = "shop_items"
	tablePurchases    = "purchases"
	tableLLMRequests  = "llm_requests"
)

var (
	campaignColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 128},
		{Name: "title", Type: field.TypeString},
		{Name: "revision", Type: field.TypeString, Size: 64},
		{Name: "theme", Type: field.TypeString, Size: 1 << 16, Default: "{}"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	campaignsTable = &schema.Table{
		Name:       tableCampaigns,
		Columns:    campaignColumns,
		PrimaryKey: []*schema.Column{campaignColumns[0]},
	}

	missionColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 128},
		{Name: "campaign_id", Type: field.TypeString, Size: 128},
		{Name: "position", Type: field.TypeInt},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 1 << 16, Default: ""},
		{Name: "experience", Type: field.TypeInt, Default: 0},
		{Name: "currency", Type: field.TypeInt, Default: 0},
		{Name: "confirmation", Type: field.TypeString, Size: 16},
	}
	missionsTable = &schema.Table{
		Name:       tableMissions,
		Columns:    missionColumns,
		PrimaryKey: []*schema.Column{missionColumns[0]},
		Indexes: []*schema.Index{
			{Name: "missions_campaign_id", Columns: []*schema.Column{missionColumns[1]}},
		},
	}

	dependencyColumns = []*schema.Column{
		{Name: "source_id", Type: field.TypeString, Size: 128},
		{Name: "target_id", Type: field.TypeString, Size: 128},
		{Name: "campaign_id", Type: field.TypeString, Size: 128},
	}
	dependenciesTable = &schema.Table{
		Name:       tableDependencies,
		Columns:    dependencyColumns,
		PrimaryKey: []*schema.Column{dependencyColumns[0], dependencyColumns[1]},
		Indexes: []*schema.Index{
			{Name: "mission_dependencies_campaign_id", Columns: []*schema.Column{dependencyColumns[2]}},
		},
	}

	stateColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "mission_id", Type: field.TypeString, Size: 128},
		{Name: "campaign_id", Type: field.TypeString, Size: 128},
		{Name: "status", Type: field.TypeString, Size: 32},
		{Name: "entered_at", Type: field.TypeTime},
		{Name: "created_at", Type: field.TypeTime},
	}
	statesTable = &schema.Table{
		Name:       tableStates,
		Columns:    stateColumns,
		PrimaryKey: []*schema.Column{stateColumns[0], stateColumns[1]},
		Indexes: []*schema.Index{
			{Name: "mission_states_user_campaign", Columns: []*schema.Column{stateColumns[0], stateColumns[2]}},
		},
	}

	creditColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "mission_id", Type: field.TypeString, Size: 128},
		{Name: "campaign_id", Type: field.TypeString, Size: 128},
		{Name: "experience", Type: field.TypeInt},
		{Name: "currency", Type: field.TypeInt},
		{Name: "credited_at", Type: field.TypeTime},
	}
	creditsTable = &schema.Table{
		Name:       tableCredits,
		Columns:    creditColumns,
		PrimaryKey: []*schema.Column{creditColumns[0], creditColumns[1]},
	}

	eventColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "campaign_id", Type: field.TypeString, Size: 128},
		{Name: "mission_id", Type: field.TypeString, Size: 128},
		{Name: "kind", Type: field.TypeString, Size: 32},
		{Name: "from_status", Type: field.TypeString, Size: 32, Default: ""},
		{Name: "to_status", Type: field.TypeString, Size: 32, Default: ""},
		{Name: "experience", Type: field.TypeInt, Default: 0},
		{Name: "currency", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	eventsTable = &schema.Table{
		Name:       tableEvents,
		Columns:    eventColumns,
		PrimaryKey: []*schema.Column{eventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "progress_events_user_id", Columns: []*schema.Column{eventColumns[1]}},
		},
	}

	shopItemColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 128},
		{Name: "title", Type: field.TypeString},
		{Name: "price", Type: field.TypeInt},
		{Name: "stock", Type: field.TypeInt, Default: -1},
		{Name: "created_at", Type: field.TypeTime},
	}
	shopItemsTable = &schema.Table{
		Name:       tableShopItems,
		Columns:    shopItemColumns,
		PrimaryKey: []*schema.Column{shopItemColumns[0]},
	}

	purchaseColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "item_id", Type: field.TypeString, Size: 128},
		{Name: "price", Type: field.TypeInt},
		{Name: "purchased_at", Type: field.TypeTime},
	}
	purchasesTable = &schema.Table{
		Name:       tablePurchases,
		Columns:    purchaseColumns,
		PrimaryKey: []*schema.Column{purchaseColumns[0]},
		Indexes: []*schema.Index{
			{Name: "purchases_user_id", Columns: []*schema.Column{purchaseColumns[1]}},
		},
	}

	llmRequestColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "provider", Type: field.TypeString, Size: 64},
		{Name: "model", Type: field.TypeString, Size: 128},
		{Name: "purpose", Type: field.TypeString, Size: 64},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2048, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	llmRequestsTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    llmRequestColumns,
		PrimaryKey: []*schema.Column{llmRequestColumns[0]},
	}

	// tables lists every table auto-migration manages.
	tables = []*schema.Table{
		campaignsTable,
		missionsTable,
		dependenciesTable,
		statesTable,
		creditsTable,
		eventsTable,
		shopItemsTable,
		purchasesTable,
		llmRequestsTable,
	}
)

// migrate creates missing tables, columns and indexes. It never drops
// anything.
func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	return m.Create(ctx, tables...)
}

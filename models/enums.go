package models

const (
	RankTechniker = "Techniker"
	RankBoss      = "Boss"
)

// stored in members.password until the invitation is redeemed
const PendingSetupPassword = "PENDING_SETUP"

type DistributionStatus string

const (
	DistributionStatusOutstanding DistributionStatus = "outstanding"
	DistributionStatusPartial     DistributionStatus = "partial"
	DistributionStatusPaid        DistributionStatus = "paid"
)

type WarehouseState string

const (
	WarehouseStateUnsorted WarehouseState = "unsorted"
	WarehouseStateSorting  WarehouseState = "sorting"
	WarehouseStateComplete WarehouseState = "complete"
)

const (
	// storage_location of items that sit in the sorting area
	UnsortedLocation = "UNSORTED"
	// warehouse category used for lots bought through the fence
	FenceGoodsCategory = "fence_goods"
	DefaultSlotSection  = "Lager"
	DefaultSlotLocation = "Paleto"
)

type IntelCategory string

const (
	IntelCategoryGang   IntelCategory = "Gang"
	IntelCategoryPerson IntelCategory = "Person"
)

const (
	ImportanceCritical = "Kritisch"
	ImportanceHigh     = "Hoch"
	ImportanceMedium   = "Mittel"
	ImportanceLow      = "Niedrig"

	DefaultIntelStatus = "Unbestätigt"
)

// activity_log.action_type values
const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionMemberAdded      = "member_added"
	ActionMemberEdited     = "member_edited"
	ActionMemberDeleted    = "member_deleted"
	ActionMemberReinvited  = "member_reinvited"
	ActionPasswordSetup    = "password_setup"
	ActionHeroArchive      = "hero_archive"
	ActionHeroDelivery     = "hero_delivery"
	ActionHeroRestock      = "hero_restock"
	ActionHeroAdjustment   = "hero_adjustment"
	ActionHeroDistribution = "hero_distribution"
	ActionHeroPayment      = "hero_payment"
	ActionHeroSettings     = "hero_settings"
	ActionHeroSale         = "hero_sale"
	ActionHeroSalePaid     = "hero_sale_paid"
	ActionFencePurchase    = "fence_purchase"
	ActionFenceSale        = "fence_sale"
	ActionFenceTemplate    = "fence_template"
	ActionWarehouse        = "warehouse"
	ActionIntelligence     = "intelligence"
	ActionRecipe           = "recipe"
	ActionMaintenance      = "maintenance"
)

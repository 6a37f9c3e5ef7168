package schema

const npc = "NPCCharacter."

// Default returns the built-in attribute table for Mount & Blade II
// Bannerlord module data (spcultures, spnpccharacters, troops, lords).
func Default() *Schema {
	rules := map[string]Rule{
		"culture":       Prefixed("Culture."),
		"faction":       Prefixed("Faction."),
		"owner":         Prefixed("Hero."),
		"default_group": {},
		"occupation":    NoRef(),
		"is_template":   NoRef(),
		"formation":     NoRef(),
		"slot":          {},

		"skill_template": Prefixed("SkillSet."),
		"skill":          Prefixed("Skill."),

		"default_party_template":       Prefixed("PartyTemplate."),
		"villager_party_template":      Prefixed("PartyTemplate."),
		"caravan_party_template":       Prefixed("PartyTemplate."),
		"elite_caravan_party_template": Prefixed("PartyTemplate."),
		"militia_party_template":       Prefixed("PartyTemplate."),
		"rebels_party_template":        Prefixed("PartyTemplate."),
		"vassal_reward_party_template": Prefixed("PartyTemplate."),

		"equipment_set":                     Prefixed("EquipmentRoster."),
		"civilian_equipment_set":            Prefixed("EquipmentRoster."),
		"battle_equipment_set":              Prefixed("EquipmentRoster."),
		"civilian":                          Prefixed("EquipmentRoster."),
		"default_battle_equipment_roster":   Prefixed("EquipmentRoster."),
		"default_civilian_equipment_roster": Prefixed("EquipmentRoster."),
		"duel_preset_equipment_roster":      Prefixed("EquipmentRoster."),

		"mount":   Prefixed("Item."),
		"harness": Prefixed("Item."),

		"id":   {Kind: EquipmentItem, Prefix: "Item.", Tags: []string{"Equipment", "equipment"}},
		"name": {Kind: Template, Tags: []string{"template"}},
	}

	for _, attr := range npcAttributes {
		rules[attr] = Prefixed(npc)
	}

	s, err := New(rules)
	if err != nil {
		panic("schema: invalid built-in table: " + err.Error())
	}
	return s
}

var npcAttributes = []string{
	"basic_troop",
	"elite_basic_troop",
	"melee_militia_troop",
	"ranged_militia_troop",
	"melee_elite_militia_troop",
	"ranged_elite_militia_troop",
	"tournament_master",
	"villager",
	"caravan_master",
	"armed_trader",
	"caravan_guard",
	"veteran_caravan_guard",
	"prison_guard",
	"guard",
	"blacksmith",
	"weaponsmith",
	"townswoman",
	"townswoman_infant",
	"townswoman_child",
	"townswoman_teenager",
	"townsman",
	"townsman_infant",
	"townsman_child",
	"townsman_teenager",
	"village_woman",
	"villager_male_child",
	"villager_male_teenager",
	"villager_female_child",
	"villager_female_teenager",
	"ransom_broker",
	"gangleader_bodyguard",
	"merchant_notary",
	"artisan_notary",
	"preacher_notary",
	"rural_notable_notary",
	"shop_worker",
	"tavernkeeper",
	"taverngamehost",
	"musician",
	"tavern_wench",
	"armorer",
	"horseMerchant",
	"barber",
	"merchant",
	"beggar",
	"female_beggar",
	"female_dancer",
	"gear_practice_dummy",
	"weapon_practice_stage_1",
	"weapon_practice_stage_2",
	"weapon_practice_stage_3",
	"gear_dummy",
	"upgrade_target",
	"lord_template",
	"rebellion_hero_template",
	"tournament_team_template",
	"basic_mercenary_troop",
	"banner_bearer_troop",
}

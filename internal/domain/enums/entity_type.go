package enums

type EntityType string

const (
	EntityTypeIndividual  EntityType = "individual"
	EntityTypeAgency      EntityType = "agency"
	EntityTypeInstitution EntityType = "institution"
)

func ParseEntityType(raw string) (EntityType, bool) {
	switch EntityType(normalize(raw)) {
	case EntityTypeIndividual:
		return EntityTypeIndividual, true
	case EntityTypeAgency:
		return EntityTypeAgency, true
	case EntityTypeInstitution:
		return EntityTypeInstitution, true
	default:
		return "", false
	}
}

type JurisdictionLevel string

// Policies live at the federal or state level only; county concerns are
// carried on entities, not policies.
const (
	JurisdictionFederal JurisdictionLevel = "federal"
	JurisdictionState   JurisdictionLevel = "state"
)

func ParseJurisdictionLevel(raw string) (JurisdictionLevel, bool) {
	switch JurisdictionLevel(normalize(raw)) {
	case JurisdictionFederal:
		return JurisdictionFederal, true
	case JurisdictionState:
		return JurisdictionState, true
	default:
		return "", false
	}
}

// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

// Raw class names, before RefineClassNames, indexed by label.
var (
	// CIFAR10Labels are the CIFAR-10 classes.
	CIFAR10Labels = []string{
		"airplane", "automobile", "bird", "cat", "deer", "dog", "frog", "horse", "ship", "truck",
	}

	// CIFAR100FineLabels are the 100 fine-grained CIFAR-100 classes.
	CIFAR100FineLabels = []string{
		"apple", "aquarium_fish", "baby", "bear", "beaver", "bed", "bee", "beetle", "bicycle", "bottle", "bowl",
		"boy", "bridge", "bus", "butterfly", "camel", "can", "castle", "caterpillar", "cattle", "chair",
		"chimpanzee", "clock", "cloud", "cockroach", "couch", "crab", "crocodile", "cup", "dinosaur", "dolphin",
		"elephant", "flatfish", "forest", "fox", "girl", "hamster", "house", "kangaroo", "keyboard", "lamp",
		"lawn_mower", "leopard", "lion", "lizard", "lobster", "man", "maple_tree", "motorcycle", "mountain",
		"mouse", "mushroom", "oak_tree", "orange", "orchid", "otter", "palm_tree", "pear", "pickup_truck",
		"pine_tree", "plain", "plate", "poppy", "porcupine", "possum", "rabbit", "raccoon", "ray", "road",
		"rocket", "rose", "sea", "seal", "shark", "shrew", "skunk", "skyscraper", "snail", "snake", "spider",
		"squirrel", "streetcar", "sunflower", "sweet_pepper", "table", "tank", "telephone", "television", "tiger",
		"tractor", "train", "trout", "tulip", "turtle", "wardrobe", "whale", "willow_tree", "wolf", "woman",
		"worm",
	}

	// GTSRBLabels are the German traffic signs, indexed by their ClassId.
	GTSRBLabels = []string{
		"20_speed", "30_speed", "50_speed", "60_speed", "70_speed", "80_speed", "80_lifted", "100_speed",
		"120_speed", "no_overtaking_general", "no_overtaking_trucks", "right_of_way_crossing",
		"right_of_way_general", "give_way", "stop", "no_way_general", "no_way_trucks", "no_way_one_way",
		"attention_general", "attention_left_turn", "attention_right_turn", "attention_curvy", "attention_bumpers",
		"attention_slippery", "attention_bottleneck", "attention_construction", "attention_traffic_light",
		"attention_pedestrian", "attention_children", "attention_bikes", "attention_snowflake", "attention_deer",
		"lifted_general", "turn_right", "turn_left", "turn_straight", "turn_straight_right", "turn_straight_left",
		"turn_right_down", "turn_left_down", "turn_circle", "lifted_no_overtaking_general",
		"lifted_no_overtaking_trucks",
	}

	// FlowersLabels are the Oxford 102 flower categories, in the order of imagelabels.mat.
	FlowersLabels = []string{
		"pink primrose", "hard-leaved pocket orchid", "canterbury bells", "sweet pea", "english marigold",
		"tiger lily", "moon orchid", "bird of paradise", "monkshood", "globe thistle", "snapdragon", "colt's foot",
		"king protea", "spear thistle", "yellow iris", "globe-flower", "purple coneflower", "peruvian lily",
		"balloon flower", "giant white arum lily", "fire lily", "pincushion flower", "fritillary", "red ginger",
		"grape hyacinth", "corn poppy", "prince of wales feathers", "stemless gentian", "artichoke",
		"sweet william", "carnation", "garden phlox", "love in the mist", "mexican aster", "alpine sea holly",
		"ruby-lipped cattleya", "cape flower", "great masterwort", "siam tulip", "lenten rose", "barbeton daisy",
		"daffodil", "sword lily", "poinsettia", "bolero deep blue", "wallflower", "marigold", "buttercup",
		"oxeye daisy", "common dandelion", "petunia", "wild pansy", "primula", "sunflower", "pelargonium",
		"bishop of llandaff", "gaura", "geranium", "orange dahlia", "pink-yellow dahlia?", "cautleya spicata",
		"japanese anemone", "black-eyed susan", "silverbush", "californian poppy", "osteospermum", "spring crocus",
		"bearded iris", "windflower", "tree poppy", "gazania", "azalea", "water lily", "rose", "thorn apple",
		"morning glory", "passion flower", "lotus", "toad lily", "anthurium", "frangipani", "clematis", "hibiscus",
		"columbine", "desert-rose", "tree mallow", "magnolia", "cyclamen", "watercress", "canna lily",
		"hippeastrum", "bee balm", "ball moss", "foxglove", "bougainvillea", "camellia", "mallow",
		"mexican petunia", "bromelia", "blanket flower", "trumpet creeper", "blackberry lily",
	}

	// FMoWLabels are the Functional Map of the World land-use categories.
	FMoWLabels = []string{
		"airport", "airport_hangar", "airport_terminal", "amusement_park", "aquaculture", "archaeological_site",
		"barn", "border_checkpoint", "burial_site", "car_dealership", "construction_site", "crop_field", "dam",
		"debris_or_rubble", "educational_institution", "electric_substation", "factory_or_powerplant",
		"fire_station", "flooded_road", "fountain", "gas_station", "golf_course", "ground_transportation_station",
		"helipad", "hospital", "impoverished_settlement", "interchange", "lake_or_pond", "lighthouse",
		"military_facility", "multi-unit_residential", "nuclear_powerplant", "office_building",
		"oil_or_gas_facility", "park", "parking_lot_or_garage", "place_of_worship", "police_station", "port",
		"prison", "race_track", "railway_bridge", "recreational_facility", "road_bridge", "runway", "shipyard",
		"shopping_mall", "single-unit_residential", "smokestack", "solar_farm", "space_facility", "stadium",
		"storage_tank", "surface_mine", "swimming_pool", "toll_booth", "tower", "tunnel_opening", "waste_disposal",
		"water_treatment_facility", "wind_farm", "zoo",
	}

	// CamelyonLabels tell whether the central region of a patch contains tumor tissue.
	CamelyonLabels = []string{
		"normal", "tumor",
	}

	// SpawriousLabels are the dog breeds of Spawrious.
	SpawriousLabels = []string{
		"bulldog", "corgi", "dachshund", "labrador",
	}

	// MelanomaLabels are the HAM10000 diagnosis codes.
	MelanomaLabels = []string{
		"akiec", "bcc", "bkl", "df", "mel", "nv", "vasc",
	}

	// ABIDELabels are indexed by DX_GROUP-1.
	ABIDELabels = []string{
		"Autism", "Control",
	}

	// SVHNLabels are the digits.
	SVHNLabels = []string{
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	}

	// CorruptionModes are the corruptions available in CIFAR-10-C.
	CorruptionModes = []string{
		"gaussian_noise", "shot_noise", "impulse_noise", "defocus_blur", "glass_blur", "motion_blur", "zoom_blur",
		"snow", "frost", "fog", "brightness", "contrast", "elastic_transform", "pixelate", "jpeg_compression",
		"speckle_noise", "gaussian_blur", "spatter", "saturate",
	}
)

// IwildcamCatchAllLabel is the name of the synthetic class grouping the labels beyond the curated list.
const IwildcamCatchAllLabel = "animal"

package profile

// Add-to-cart resolves on presence alone: visibility and enabled state are
// judged by the validator so an invisible control is a defect, not a miss.

var shopify = Profile{
	Platform: Shopify,
	Elements: map[string]Element{
		Title: {Predicate: PredicateText, Candidates: []string{
			"h1.product-single__title",
			"h1.product__title",
			".product__title h1",
			"h1.product-title",
			".product-single__title",
			"h1[itemprop='name']",
			".product-meta h1",
			"h1",
		}},
		Price: {Predicate: PredicatePrice, Candidates: []string{
			".price-item--sale",
			".price-item--regular",
			".product__price",
			".product-single__price",
			"[data-product-price]",
			".price .money",
			"span.money",
			"[itemprop='price']",
			".price",
		}},
		Description: {Predicate: PredicateText, Candidates: []string{
			".product__description",
			".product-single__description",
			".product-description",
			"[itemprop='description']",
			".product .rte",
		}},
		AddToCart: {Predicate: PredicateVisible, Candidates: []string{
			"button[name='add']",
			"form[action*='/cart/add'] button[type='submit']",
			".product-form__submit",
			"#AddToCart",
			".btn--add-to-cart",
			"button.add-to-cart",
			"input[name='add']",
		}},
		Images: {Predicate: PredicateExists, Candidates: []string{
			".product__media img",
			".product-single__photo img",
			".product__image",
			".product-featured-img",
			"[data-product-featured-image]",
			".product-gallery img",
			"img[src*='cdn.shopify.com']",
		}},
		Variants: {Predicate: PredicateExists, Candidates: []string{
			"variant-radios",
			"variant-selects",
			"select[name='id']",
			".product-form__input",
			".single-option-selector",
			"[data-variant-selector]",
		}},
	},
}

var bigcommerce = Profile{
	Platform: BigCommerce,
	Elements: map[string]Element{
		Title: {Predicate: PredicateText, Candidates: []string{
			"h1.productView-title",
			".productView-title",
			"h1[data-product-title]",
			"h1",
		}},
		Price: {Predicate: PredicatePrice, Candidates: []string{
			".productView-price .price--withoutTax",
			".productView-price .price--withTax",
			"[data-product-price-without-tax]",
			"[data-product-price-with-tax]",
			".price--main",
			".productView-price .price",
			".price",
		}},
		Description: {Predicate: PredicateText, Candidates: []string{
			".productView-description",
			"#tab-description",
			"[data-product-description]",
			".productView-description-tabContent",
		}},
		AddToCart: {Predicate: PredicateVisible, Candidates: []string{
			"#form-action-addToCart",
			"[data-button-type='add-cart']",
			".form-action-addToCart",
			"button.add-to-cart",
		}},
		Images: {Predicate: PredicateExists, Candidates: []string{
			".productView-image img",
			".productView-img-container img",
			".productView-thumbnail img",
			"img.productView-image--default",
		}},
		Variants: {Predicate: PredicateExists, Candidates: []string{
			"[data-product-option-change]",
			".form-field[data-product-attribute]",
			".productView-options select",
		}},
	},
}

var generic = Profile{
	Platform: Generic,
	Elements: map[string]Element{
		Title: {Predicate: PredicateText, Candidates: []string{
			"[itemprop='name']",
			"h1.product-title",
			"h1.product_title",
			".product-name h1",
			"h1",
		}},
		Price: {Predicate: PredicatePrice, Candidates: []string{
			"[itemprop='price']",
			".product-price",
			".price .amount",
			".price",
			"[class*='price']",
		}},
		Description: {Predicate: PredicateText, Candidates: []string{
			"[itemprop='description']",
			".product-description",
			"#description",
			".description",
		}},
		AddToCart: {Predicate: PredicateVisible, Candidates: []string{
			"button[name='add-to-cart']",
			"button.single_add_to_cart_button",
			"[data-action='add-to-cart']",
			"button.add-to-cart",
			"#add-to-cart",
			"button[type='submit'][class*='cart']",
		}},
		Images: {Predicate: PredicateExists, Candidates: []string{
			"[itemprop='image']",
			".product-images img",
			".product-gallery img",
			".woocommerce-product-gallery img",
			"main img",
		}},
		Variants: {Predicate: PredicateExists, Candidates: []string{
			".variations select",
			"select[name*='variant']",
			"select[name*='option']",
			"[data-variant]",
		}},
	},
}

// Builtin returns the catalog shipped with storecheck.
func Builtin() *Catalog {
	return &Catalog{profiles: map[string]Profile{
		Shopify:     shopify.clone(),
		BigCommerce: bigcommerce.clone(),
		Generic:     generic.clone(),
	}}
}

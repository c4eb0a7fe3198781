package exceptions

// Archives that duplicate or predate a better copy of the same translation.
var defaultSkipFiles = map[string]string{
	"bwu_23924b4088bd455f.zip": "older, hacked font version of other bwu file",
	"kus_aa7bfc87e2d146e9.zip": "older, hacked font version of kus bwu file",
	"ptu_508d69aca227e09a.zip": "same translation as the other ptu file, just older with less books in it",
	"qvw_4682b4576f7f666f.zip": "slightly older NT version of the other qvw (which is OT). Using other one bc its files are nicer",
}

// Archives known to hold a language variant their file name does not show.
var defaultKnownVariants = map[string]string{
	"acr_7881095a69332502.zip": "acr-x-rabinal",
	"acr_2fb7cabcc2144633.zip": "acr-x-trabinal",
	"acr_f39e0b553b5b6e1e.zip": "acr-x-cubulco",
	"aoj_9b2f4522c94167b3.zip": "aoj-x-filifita",
	"aoj_e1b773c63b9b23de.zip": "aoj-x-balif",
	"ape_0e5e9ab5304a71df.zip": "ape-x-coastal",
	"ape_9adf28ef3e43803b.zip": "ape-x-mountain",
	"avu_25b22b576c35c0a2.zip": "avu",
	"buu_9dfa86fef49a2749.zip": "buu-x-koya",
	"buu_7f38828c4ca2f6ec.zip": "buu-x-ineta",
	"cak_0c58bc770fea1f13.zip": "cak-x-xenacoj",
	"cak_78df9d2017796a6a.zip": "cak-x-swestern",
	"cak_a4c5eb163eacc4fe.zip": "cak-x-central",
	"cak_a804bbc16f5648c6.zip": "cak-x-subsa",
	"cak_ba8af875c3c81f92.zip": "cak-x-subsu",
	"cak_bc4e6ea72ebcd70a.zip": "cak-x-eastern",
	"cak_c4fe9e2ee5c9478b.zip": "cak-x-subcm",
	"cak_edc84e947196a225.zip": "cak-x-subso",
	"cbs_bfe3d27ca02d8188.zip": "cbs-BR",
	"ctu_fc58a81f91b61c65.zip": "ctu-x-tumbala",
	"ctu_312b0d1e64e9e427.zip": "ctu-x-tila",
	"dhg_9f72b29d8a4d0cd8.zip": "dhg-x-wangurri",
	"gfk_83abc8c1746443c3.zip": "gfk-x-sokarek",
	"gfk_eeaf12df03835eb2.zip": "gfk-x-hinsaal",
	"hus_05749a20390d4b57.zip": "hus-x-central",
	"hus_4debd996d0f50e67.zip": "hus-x-potosino",
	"ixl_2bac6224ab47bab8.zip": "ixl-x-cotzal",
	"ixl_2dad83033884a3ad.zip": "ixl-x-nebaj",
	"kmh_3de6c420cb00e851.zip": "kmh-x-minimib",
	"knv_cd88ca9cb083c101.zip": "knv-x-flyriver",
	"knv_74ea3f410729934b.zip": "knv-x-aramia",
	"kqe_7876fc7be8a234f1.zip": "kqe-x-east",
	"kqe_9396bdab17afda48.zip": "kqe-x-west",
	"lwo_94f55365a50fb16d.zip": "lwo",
	"mam_8eb38973d944f48a.zip": "mam-x-central",
	"mam_925bffd8dc536fee.zip": "mam-x-todos",
	"nhx_d38a664622353792.zip": "nhx-x-tatahui",
	"noa_5f19908d3d3695c1.zip": "noa-x-alt",
	"okv_78b96b766ccc69b2.zip": "okv-x-etija",
	"okv_804cc342b7cc775a.zip": "okv-x-ehija",
	"quc_dd5c5f7428bdbc7d.zip": "quc-x-trad",
	"tuc_79eafcc60f337d8c.zip": "tuc-x-oov",
	"tuc_00f8a1a8be6d4cbd.zip": "tuc-x-tuam",
	"tuo_9e63cdeff066ea65.zip": "tuo-CO",
	"tzj_28b49503236ab541.zip": "tzj-x-western",
	"tzo_89a655d8cecbd0b5.zip": "tzo-x-zinacntn",
	"tzo_d3c1a6a5b1a6d906.zip": "tzo-x-huixtan",
	"tzo_d2852d0e5004eee9.zip": "tzo-x-sanandre",
	"wed_017a5237548af856.zip": "wed-x-topura",
	"xbi_1d2500c097ee17fc.zip": "xbi-x-western",
	"xbi_6143d8c5bae3a41f.zip": "xbi-x-south",
	"xsm_78b5ca615ee7f539.zip": "xsm-BF",
}

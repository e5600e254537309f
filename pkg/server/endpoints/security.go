package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
)

func registerSecurityEndpoints(router *mux.Router, p *providerResolver) {
	router.HandleFunc("/security/", linksHandler("keypairs", "security_groups")).Methods("GET")

	keyPairs := func(c cloud.Provider) cloud.KeyPairService { return c.Security().KeyPairs() }
	router.HandleFunc("/security/keypairs/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := keyPairs(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/security/keypairs/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &body); err != nil {
			return err
		}
		if body.Name == "" {
			return requiredFields(map[string]string{"name": ""})
		}
		kp, err := keyPairs(c).Create(r.Context(), body.Name)
		return respondItem(w, http.StatusCreated, kp, err)
	})).Methods("POST")
	router.HandleFunc("/security/keypairs/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		kp, err := keyPairs(c).Get(r.Context(), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, kp, err)
	})).Methods("GET")
	router.HandleFunc("/security/keypairs/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, keyPairs(c).Delete(r.Context(), pathVar(r, "id")))
	})).Methods("DELETE")

	groups := func(c cloud.Provider) cloud.SecurityGroupService { return c.Security().SecurityGroups() }
	router.HandleFunc("/security/security_groups/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		list, err := groups(c).List(r.Context())
		return respondList(w, list, err)
	})).Methods("GET")
	router.HandleFunc("/security/security_groups/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.SecurityGroupCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Name == "" || opts.Description == "" {
			return requiredFields(map[string]string{"name": opts.Name, "description": opts.Description})
		}
		sg, err := groups(c).Create(r.Context(), opts)
		return respondItem(w, http.StatusCreated, sg, err)
	})).Methods("POST")
	router.HandleFunc("/security/security_groups/{sg}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		sg, err := groups(c).Get(r.Context(), pathVar(r, "sg"))
		return respondItem(w, http.StatusOK, sg, err)
	})).Methods("GET")
	router.HandleFunc("/security/security_groups/{sg}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, groups(c).Delete(r.Context(), pathVar(r, "sg")))
	})).Methods("DELETE")

	router.HandleFunc("/security/security_groups/{sg}/rules/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		rules, err := groups(c).ListRules(r.Context(), pathVar(r, "sg"))
		return respondList(w, rules, err)
	})).Methods("GET")
	router.HandleFunc("/security/security_groups/{sg}/rules/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		var opts cloud.RuleCreate
		if err := decodeJSON(r, &opts); err != nil {
			return err
		}
		if opts.Protocol == "" {
			return requiredFields(map[string]string{"ip_protocol": ""})
		}
		if opts.CIDR == "" && opts.SrcGroupID == "" {
			return requiredFields(map[string]string{"cidr_ip": ""})
		}
		rule, err := groups(c).AddRule(r.Context(), pathVar(r, "sg"), opts)
		return respondItem(w, http.StatusCreated, rule, err)
	})).Methods("POST")
	router.HandleFunc("/security/security_groups/{sg}/rules/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		rule, err := groups(c).GetRule(r.Context(), pathVar(r, "sg"), pathVar(r, "id"))
		return respondItem(w, http.StatusOK, rule, err)
	})).Methods("GET")
	router.HandleFunc("/security/security_groups/{sg}/rules/{id}/", p.withProvider(func(w http.ResponseWriter, r *http.Request, c cloud.Provider) error {
		return respondDeleted(w, groups(c).DeleteRule(r.Context(), pathVar(r, "sg"), pathVar(r, "id")))
	})).Methods("DELETE")
}

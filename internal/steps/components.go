// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/helm"
)

// keystoreSecretName holds the Lightning Server encryption key
// material, created from the config before the chart is applied.
const keystoreSecretName = "lightning-keystore"

func chartOr(chart, fallback string) string {
	if chart != "" {
		return chart
	}
	return fallback
}

// componentValues renders the common override surface every platform
// chart understands.
func componentValues(cc config.ComponentConfig, cfg *config.InstallerConfig) map[string]string {
	values := map[string]string{
		"global.storageClass": cfg.Global.StorageClass,
	}
	if cc.Image != "" {
		values["image.repository"] = cc.Image
	}
	if cc.Tag != "" {
		values["image.tag"] = cc.Tag
	}
	if cc.Replicas > 0 {
		values["replicaCount"] = strconv.Itoa(cc.Replicas)
	}
	return values
}

func databaseValues(cfg *config.InstallerConfig) map[string]string {
	return map[string]string{
		"database.host":     cfg.Database.Host,
		"database.port":     strconv.Itoa(cfg.Database.Port),
		"database.name":     cfg.Database.Name,
		"database.username": cfg.Database.Username,
		"database.password": cfg.Database.Password,
	}
}

func NewSparkOperator(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName:   "spark-operator",
		ServiceName:   "spark-operator-webhook",
		Selector:      "app.kubernetes.io/name=spark-operator",
		ClusterScoped: true,
		CRDs: []string{
			"sparkapplications.sparkoperator.k8s.io",
			"scheduledsparkapplications.sparkoperator.k8s.io",
		},
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			return helm.ReleaseSpec{
				Name:      "spark-operator",
				Chart:     chartOr(cfg.Operator.Chart, "spark-operator/spark-operator"),
				Version:   cfg.Operator.ChartVersion,
				Namespace: "spark-operator",
				Timeout:   installTimeout("spark-operator"),
				Values:    componentValues(cfg.Operator, cfg),
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewCertManager(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName:   "cert-manager",
		Selector:      "app.kubernetes.io/name=cert-manager",
		ClusterScoped: true,
		CRDs: []string{
			"certificates.cert-manager.io",
			"issuers.cert-manager.io",
			"clusterissuers.cert-manager.io",
		},
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.CertManager, cfg)
			values["installCRDs"] = "true"
			return helm.ReleaseSpec{
				Name:      "cert-manager",
				Chart:     chartOr(cfg.CertManager.Chart, "jetstack/cert-manager"),
				Version:   cfg.CertManager.ChartVersion,
				Namespace: "cert-manager",
				Timeout:   installTimeout("cert-manager"),
				Values:    values,
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewElasticsearch(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "elasticsearch",
		ServiceName: "elasticsearch-master",
		Selector:    "app=elasticsearch-master",
		// Elasticsearch reports transient GC and shard warnings that
		// are not failures, so "warn" is deliberately absent here.
		Keywords: []string{"error", "exception", "failed", "fatal"},
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			return helm.ReleaseSpec{
				Name:      "elasticsearch",
				Chart:     chartOr(cfg.Elasticsearch.Chart, "elastic/elasticsearch"),
				Version:   cfg.Elasticsearch.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("elasticsearch"),
				Values:    componentValues(cfg.Elasticsearch, cfg),
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewSolr(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "solr",
		ServiceName: "solr-svc",
		Selector:    "app.kubernetes.io/name=solr",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			return helm.ReleaseSpec{
				Name:      "solr",
				Chart:     chartOr(cfg.Solr.Chart, "apache-solr/solr"),
				Version:   cfg.Solr.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("solr"),
				Values:    componentValues(cfg.Solr, cfg),
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewLightningServer(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName:    "lightning-server",
		Selector:       "app.kubernetes.io/name=lightning-server",
		ServiceAccount: "lightning-server",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.Lightning.Server, cfg)
			for key, value := range databaseValues(cfg) {
				values[key] = value
			}
			values["serviceAccount.name"] = "lightning-server"
			values["keystore.secretName"] = keystoreSecretName
			return helm.ReleaseSpec{
				Name:      "lightning-server",
				Chart:     chartOr(cfg.Lightning.Server.Chart, "lightning/lightning-server"),
				Version:   cfg.Lightning.Server.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("lightning-server"),
				Values:    values,
			}
		},
		PreInstall: func(ctx context.Context, cfg *config.InstallerConfig) error {
			if cfg.Encryption.KeyMaterial == "" {
				return nil
			}
			der, err := base64.StdEncoding.DecodeString(cfg.Encryption.KeyMaterial)
			if err != nil {
				return fmt.Errorf("decode encryption key material: %w", err)
			}
			return kubeClient.EnsureSecret(ctx, cfg.Global.Namespace, keystoreSecretName, map[string][]byte{
				"keystore.der": der,
			})
		},
		PostCleanup: func(ctx context.Context, cfg *config.InstallerConfig) error {
			return kubeClient.DeleteSecret(ctx, cfg.Global.Namespace, keystoreSecretName)
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewLightningAPI(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName:    "lightning-api",
		Selector:       "app.kubernetes.io/name=lightning-api",
		ServiceAccount: "lightning-api",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.Lightning.API, cfg)
			values["serviceAccount.name"] = "lightning-api"
			values["server.url"] = fmt.Sprintf("%s://lightning-server.%s.svc:8080", cfg.Global.DNSProtocol, cfg.Global.Namespace)
			return helm.ReleaseSpec{
				Name:      "lightning-api",
				Chart:     chartOr(cfg.Lightning.API.Chart, "lightning/lightning-api"),
				Version:   cfg.Lightning.API.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("lightning-api"),
				Values:    values,
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewLightningGUI(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "lightning-gui",
		Selector:    "app.kubernetes.io/name=lightning-gui",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.Lightning.GUI, cfg)
			values["ingress.host"] = fmt.Sprintf("lightning.%s", cfg.Global.Domain)
			values["ingress.protocol"] = cfg.Global.DNSProtocol
			return helm.ReleaseSpec{
				Name:      "lightning-gui",
				Chart:     chartOr(cfg.Lightning.GUI.Chart, "lightning/lightning-gui"),
				Version:   cfg.Lightning.GUI.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("lightning-gui"),
				Values:    values,
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewZeppelin(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName:    "zeppelin",
		Selector:       "app.kubernetes.io/name=zeppelin",
		ServiceAccount: "zeppelin",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.Lightning.Zeppelin, cfg)
			values["serviceAccount.name"] = "zeppelin"
			return helm.ReleaseSpec{
				Name:      "zeppelin",
				Chart:     chartOr(cfg.Lightning.Zeppelin.Chart, "lightning/zeppelin"),
				Version:   cfg.Lightning.Zeppelin.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("zeppelin"),
				Values:    values,
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewAIAssistant(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "lightning-assist",
		Selector:    "app.kubernetes.io/name=lightning-assist",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			return helm.ReleaseSpec{
				Name:      "lightning-assist",
				Chart:     chartOr(cfg.Lightning.Assist.Chart, "lightning/lightning-assist"),
				Version:   cfg.Lightning.Assist.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("lightning-assist"),
				Values:    componentValues(cfg.Lightning.Assist, cfg),
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewAIIndexer(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "lightning-indexer",
		Selector:    "app.kubernetes.io/name=lightning-indexer",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := componentValues(cfg.Lightning.Indexer, cfg)
			values["elasticsearch.host"] = fmt.Sprintf("elasticsearch-master.%s.svc", cfg.Global.Namespace)
			return helm.ReleaseSpec{
				Name:      "lightning-indexer",
				Chart:     chartOr(cfg.Lightning.Indexer.Chart, "lightning/lightning-indexer"),
				Version:   cfg.Lightning.Indexer.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("lightning-indexer"),
				Values:    values,
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

func NewAirflow(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "airflow",
		ServiceName: "airflow-webserver",
		Selector:    "component=webserver",
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			return helm.ReleaseSpec{
				Name:      "airflow",
				Chart:     chartOr(cfg.Airflow.Chart, "apache-airflow/airflow"),
				Version:   cfg.Airflow.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("airflow"),
				Values: map[string]string{
					"global.storageClass": cfg.Global.StorageClass,
				},
			}
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}
